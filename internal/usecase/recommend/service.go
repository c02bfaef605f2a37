// Package recommend shapes engine results for API callers.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamerec/internal/domain"
	"github.com/kailas-cloud/gamerec/internal/domain/game"
	"github.com/kailas-cloud/gamerec/internal/domain/recommendation"
	"github.com/kailas-cloud/gamerec/internal/engine"
	"github.com/kailas-cloud/gamerec/internal/logger"
	"github.com/kailas-cloud/gamerec/internal/metrics"
)

// Request kinds, used as metric labels.
const (
	KindByID   = "by_id"
	KindByText = "by_text"
)

// Config holds request limits.
type Config struct {
	DefaultTopK    int
	MaxTopK        int
	SummaryPreview int // runes kept before "..."
	SearchLimit    int
	MaxSearchLimit int
	MaxQueryLength int
}

// Item is one projected recommendation.
type Item struct {
	GameID          int64    `json:"game_id"`
	SimilarityScore float64  `json:"similarity_score"`
	Name            string   `json:"name"`
	Rating          *float64 `json:"rating"`
	Genres          []string `json:"genres"`
	Platforms       []string `json:"platforms"`
	Summary         string   `json:"summary"`
}

// Service is the serving facade over a loaded model.
type Service struct {
	model Model
	cfg   Config
}

// New creates a Service.
func New(model Model, cfg Config) *Service {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 10
	}
	if cfg.MaxTopK < cfg.DefaultTopK {
		cfg.MaxTopK = max(cfg.DefaultTopK, 50)
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 20
	}
	if cfg.MaxSearchLimit < cfg.SearchLimit {
		cfg.MaxSearchLimit = cfg.SearchLimit
	}
	return &Service{model: model, cfg: cfg}
}

// ByID recommends games similar to id. A nil topK uses the default.
func (s *Service) ByID(ctx context.Context, id int64, topK *int, excludeSimilarGenres bool) ([]Item, error) {
	k, err := s.resolveTopK(topK)
	if err != nil {
		return nil, err
	}
	var opts []engine.Option
	if excludeSimilarGenres {
		opts = append(opts, engine.ExcludeSimilarGenres())
	}

	start := time.Now()
	recs, err := s.model.RecommendByID(id, k, opts...)
	s.observe(ctx, KindByID, start, len(recs), err)
	if err != nil {
		return nil, fmt.Errorf("recommend by id %d: %w", id, err)
	}
	return s.project(recs), nil
}

// ByText recommends games matching a free text description.
func (s *Service) ByText(ctx context.Context, text string, topK *int) ([]Item, error) {
	k, err := s.resolveTopK(topK)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyQuery
	}
	if s.cfg.MaxQueryLength > 0 && utf8.RuneCountInString(text) > s.cfg.MaxQueryLength {
		return nil, fmt.Errorf("%w: limit is %d characters", domain.ErrQueryTooLong, s.cfg.MaxQueryLength)
	}

	start := time.Now()
	recs, err := s.model.RecommendByText(text, k)
	s.observe(ctx, KindByText, start, len(recs), err)
	if err != nil {
		return nil, fmt.Errorf("recommend by text: %w", err)
	}
	return s.project(recs), nil
}

// Game returns the full record of one game.
func (s *Service) Game(_ context.Context, id int64) (game.Game, error) {
	g, err := s.model.Game(id)
	if err != nil {
		return game.Game{}, fmt.Errorf("get game %d: %w", id, err)
	}
	return g, nil
}

// Search finds games by name. A nil limit uses the default.
func (s *Service) Search(_ context.Context, query string, limit *int) ([]game.Game, error) {
	n := s.cfg.SearchLimit
	if limit != nil {
		n = *limit
	}
	if n < 1 || n > s.cfg.MaxSearchLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d, got %d", domain.ErrInvalidTopK, s.cfg.MaxSearchLimit, n)
	}
	games, err := s.model.Search(query, n)
	if err != nil {
		return nil, fmt.Errorf("search games: %w", err)
	}
	return games, nil
}

// Status reports the loaded model.
func (s *Service) Status() engine.Status {
	return s.model.Status()
}

func (s *Service) resolveTopK(topK *int) (int, error) {
	if topK == nil {
		return s.cfg.DefaultTopK, nil
	}
	if *topK < 1 || *topK > s.cfg.MaxTopK {
		return 0, fmt.Errorf("%w: must be between 1 and %d, got %d", domain.ErrInvalidTopK, s.cfg.MaxTopK, *topK)
	}
	return *topK, nil
}

func (s *Service) project(recs []recommendation.Recommendation) []Item {
	items := make([]Item, len(recs))
	for i := range recs {
		g := recs[i].Game()
		items[i] = Item{
			GameID:          g.ID,
			SimilarityScore: recs[i].Score(),
			Name:            g.Name,
			Rating:          g.Rating,
			Genres:          nonNil(g.Genres),
			Platforms:       nonNil(g.Platforms),
			Summary:         Preview(g.Summary, s.cfg.SummaryPreview),
		}
	}
	return items
}

func (s *Service) observe(ctx context.Context, kind string, start time.Time, n int, err error) {
	took := time.Since(start)
	status := statusLabel(err)
	metrics.RecommendationsTotal.WithLabelValues(kind, status).Inc()
	metrics.RecommendationDuration.WithLabelValues(kind).Observe(took.Seconds())
	if err == nil {
		metrics.RecommendationResults.WithLabelValues(kind).Observe(float64(n))
	}
	logger.FromContext(ctx).Debug("recommendation computed",
		zap.String("kind", kind),
		zap.String("status", status),
		zap.Int("results", n),
		zap.Duration("took", took),
	)
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnknownGame):
		return "not_found"
	case errors.Is(err, domain.ErrEmptyQuery), errors.Is(err, domain.ErrInvalidTopK):
		return "invalid"
	case errors.Is(err, domain.ErrNotTrained):
		return "unavailable"
	default:
		return "error"
	}
}

// Preview cuts s to limit runes, marking the cut with "...".
// A non-positive limit keeps s whole.
func Preview(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "..."
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
