// Package engine implements the content-based similarity model.
//
// An Engine moves from untrained to trained exactly once. The trained state is
// immutable and published atomically, so concurrent queries need no locking.
package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamerec/internal/domain"
	"github.com/kailas-cloud/gamerec/internal/domain/game"
	"github.com/kailas-cloud/gamerec/internal/features"
	"github.com/kailas-cloud/gamerec/internal/matrix"
)

// Config configures training.
type Config struct {
	// MaxCorpusSize bounds the trainable corpus; the similarity matrix is N².
	MaxCorpusSize int             `yaml:"max_corpus_size" json:"max_corpus_size"`
	Workers       int             `yaml:"workers" json:"workers"`
	Features      features.Config `yaml:"features" json:"features"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxCorpusSize: 10000,
		Workers:       4,
		Features:      features.DefaultConfig(),
	}
}

// model is the trained state. It is never mutated after publication.
type model struct {
	extractor  *features.Extractor
	games      []game.Game
	index      map[int64]int
	features   *matrix.Dense
	norms      []float64
	similarity []float32
	trainedAt  time.Time
}

func (m *model) size() int { return len(m.games) }

func (m *model) sim(i, j int) float64 { return float64(m.similarity[i*len(m.games)+j]) }

// Engine answers similarity queries over a trained corpus.
type Engine struct {
	cfg    Config
	logger *zap.Logger

	trainMu sync.Mutex
	state   atomic.Pointer[model]
}

// New creates an untrained engine.
func New(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Trained reports whether the engine holds a model.
func (e *Engine) Trained() bool { return e.state.Load() != nil }

// EstimateBytes returns the approximate resident size of a trained model
// with n records and cols feature columns.
func EstimateBytes(n, cols int) int64 {
	return int64(n)*int64(n)*4 + int64(n)*int64(cols)*8
}

// Train filters games to trainable records, fits the feature extractor and
// builds the similarity matrix. Nothing becomes visible to queries unless
// every step succeeds.
func (e *Engine) Train(ctx context.Context, games []game.Game) (TrainingReport, error) {
	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	if e.state.Load() != nil {
		return TrainingReport{}, domain.ErrAlreadyTrained
	}

	start := time.Now()
	trainable := game.FilterTrainable(games)
	if len(trainable) == 0 {
		return TrainingReport{}, fmt.Errorf("%w: %d records, none trainable", domain.ErrEmptyTrainingSet, len(games))
	}
	n := len(trainable)
	if e.cfg.MaxCorpusSize > 0 && n > e.cfg.MaxCorpusSize {
		return TrainingReport{}, fmt.Errorf("%w: %d records exceed limit %d (similarity matrix ~%d bytes)",
			domain.ErrCorpusTooLarge, n, e.cfg.MaxCorpusSize, EstimateBytes(n, 0))
	}

	index, err := buildIndex(trainable)
	if err != nil {
		return TrainingReport{}, err
	}

	extractor := features.New(e.cfg.Features, e.logger)
	fm, err := extractor.FitTransform(trainable)
	if err != nil {
		return TrainingReport{}, fmt.Errorf("fit features: %w", err)
	}

	norms := fm.RowNorms()
	sim, err := pairwiseCosine(ctx, fm, norms, e.cfg.Workers)
	if err != nil {
		return TrainingReport{}, fmt.Errorf("similarity matrix: %w", err)
	}

	m := &model{
		extractor:  extractor,
		games:      trainable,
		index:      index,
		features:   fm,
		norms:      norms,
		similarity: sim,
		trainedAt:  time.Now().UTC(),
	}
	report := buildReport(m, len(games)-n, time.Since(start))
	e.state.Store(m)

	e.logger.Info("model trained",
		zap.Int("samples", report.Samples),
		zap.Int("dropped", report.Dropped),
		zap.Int("features", report.Features),
		zap.Float64("similarity_mean", report.Similarity.Mean),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func buildIndex(games []game.Game) (map[int64]int, error) {
	index := make(map[int64]int, len(games))
	for i := range games {
		id := games[i].ID
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", domain.ErrInvalidGame, id)
		}
		index[id] = i
	}
	return index, nil
}

// Status describes the loaded model.
type Status struct {
	Trained   bool
	Games     int
	Features  int
	TrainedAt time.Time
}

// Status returns the current model status.
func (e *Engine) Status() Status {
	m := e.state.Load()
	if m == nil {
		return Status{}
	}
	return Status{
		Trained:   true,
		Games:     m.size(),
		Features:  m.features.Cols(),
		TrainedAt: m.trainedAt,
	}
}

// FeatureNames returns the feature column names of the trained model.
func (e *Engine) FeatureNames() ([]string, error) {
	m := e.state.Load()
	if m == nil {
		return nil, domain.ErrNotTrained
	}
	return m.extractor.FeatureNames(), nil
}

// Games returns a copy of the trained corpus in training order.
func (e *Engine) Games() ([]game.Game, error) {
	m := e.state.Load()
	if m == nil {
		return nil, domain.ErrNotTrained
	}
	return slices.Clone(m.games), nil
}

// Game returns one record of the trained corpus.
func (e *Engine) Game(id int64) (game.Game, error) {
	m := e.state.Load()
	if m == nil {
		return game.Game{}, domain.ErrNotTrained
	}
	i, ok := m.index[id]
	if !ok {
		return game.Game{}, domain.NewUnknownGame(id)
	}
	return m.games[i], nil
}

// Search returns up to limit games whose name contains query, case-insensitively,
// in training order.
func (e *Engine) Search(query string, limit int) ([]game.Game, error) {
	m := e.state.Load()
	if m == nil {
		return nil, domain.ErrNotTrained
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, domain.ErrEmptyQuery
	}
	if limit <= 0 {
		return nil, domain.ErrInvalidTopK
	}
	var out []game.Game
	for i := range m.games {
		if strings.Contains(strings.ToLower(m.games[i].Name), q) {
			out = append(out, m.games[i])
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
