package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/gamerec/internal/domain"
	"github.com/kailas-cloud/gamerec/internal/domain/game"
	"github.com/kailas-cloud/gamerec/internal/features"
	"github.com/kailas-cloud/gamerec/internal/matrix"
)

// Snapshot is the full trained state, used for persistence.
type Snapshot struct {
	Config     Config
	Extractor  *features.Extractor
	Games      []game.Game
	Features   *matrix.Dense
	Similarity []float32
	TrainedAt  time.Time
}

// Snapshot exports the trained state. The returned buffers are shared with
// the engine and must not be modified.
func (e *Engine) Snapshot() (Snapshot, error) {
	m := e.state.Load()
	if m == nil {
		return Snapshot{}, domain.ErrNotTrained
	}
	return Snapshot{
		Config:     e.cfg,
		Extractor:  m.extractor,
		Games:      m.games,
		Features:   m.features,
		Similarity: m.similarity,
		TrainedAt:  m.trainedAt,
	}, nil
}

// Restore installs a previously trained state after validating its shape.
func (e *Engine) Restore(s Snapshot) error {
	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	if e.state.Load() != nil {
		return domain.ErrAlreadyTrained
	}
	if s.Extractor == nil || !s.Extractor.Fitted() {
		return fmt.Errorf("restore: %w", domain.ErrNotFitted)
	}
	n := len(s.Games)
	if n == 0 {
		return fmt.Errorf("restore: %w", domain.ErrEmptyTrainingSet)
	}
	if s.Features == nil || s.Features.Rows() != n {
		return fmt.Errorf("restore: feature matrix does not match %d games", n)
	}
	if s.Features.Cols() != s.Extractor.FeatureCount() {
		return fmt.Errorf("restore: feature matrix has %d columns, extractor produces %d",
			s.Features.Cols(), s.Extractor.FeatureCount())
	}
	if len(s.Similarity) != n*n {
		return fmt.Errorf("restore: similarity matrix has %d entries, want %d", len(s.Similarity), n*n)
	}
	for i := 0; i < n; i++ {
		if s.Similarity[i*n+i] != 0 {
			return fmt.Errorf("restore: similarity diagonal not zero at %d", i)
		}
	}
	index, err := buildIndex(s.Games)
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	e.state.Store(&model{
		extractor:  s.Extractor,
		games:      slices.Clone(s.Games),
		index:      index,
		features:   s.Features,
		norms:      s.Features.RowNorms(),
		similarity: s.Similarity,
		trainedAt:  s.TrainedAt,
	})
	return nil
}
