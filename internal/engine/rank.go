package engine

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/gamerec/internal/domain"
	"github.com/kailas-cloud/gamerec/internal/domain/game"
	"github.com/kailas-cloud/gamerec/internal/domain/recommendation"
)

// genreOverlapThreshold is the share of the target's genres a candidate must
// carry to be dropped by ExcludeSimilarGenres.
const genreOverlapThreshold = 0.8

type queryOptions struct {
	excludeSimilarGenres bool
}

// Option tunes a RecommendByID call.
type Option func(*queryOptions)

// ExcludeSimilarGenres drops candidates sharing most of the target's genres.
func ExcludeSimilarGenres() Option {
	return func(o *queryOptions) { o.excludeSimilarGenres = true }
}

type candidate struct {
	idx   int
	score float64
}

// RecommendByID returns the topK games most similar to the game with id.
// The game itself is never part of the result. topK above the number of
// candidates is clamped.
func (e *Engine) RecommendByID(id int64, topK int, opts ...Option) ([]recommendation.Recommendation, error) {
	m := e.state.Load()
	if m == nil {
		return nil, domain.ErrNotTrained
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidTopK, topK)
	}
	target, ok := m.index[id]
	if !ok {
		return nil, domain.NewUnknownGame(id)
	}

	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}

	cands := make([]candidate, 0, m.size()-1)
	for j := 0; j < m.size(); j++ {
		if j == target {
			continue
		}
		if o.excludeSimilarGenres && sharesGenres(&m.games[target], &m.games[j]) {
			continue
		}
		cands = append(cands, candidate{idx: j, score: m.sim(target, j)})
	}
	return m.top(cands, topK), nil
}

// RecommendByText scores free text against the corpus through the fitted
// extractor. No record is excluded.
func (e *Engine) RecommendByText(text string, topK int) ([]recommendation.Recommendation, error) {
	m := e.state.Load()
	if m == nil {
		return nil, domain.ErrNotTrained
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidTopK, topK)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyQuery
	}

	qv, err := m.extractor.TransformQuery(text)
	if err != nil {
		return nil, fmt.Errorf("transform query: %w", err)
	}
	scores := queryScores(m.features, m.norms, qv)

	cands := make([]candidate, len(scores))
	for j, s := range scores {
		cands[j] = candidate{idx: j, score: s}
	}
	return m.top(cands, topK), nil
}

// top sorts candidates by descending score, keeping corpus order on ties,
// and returns the first k.
func (m *model) top(cands []candidate, k int) []recommendation.Recommendation {
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Compare(b.score, a.score)
	})
	k = min(k, len(cands))
	out := make([]recommendation.Recommendation, k)
	for r := 0; r < k; r++ {
		out[r] = recommendation.New(m.games[cands[r].idx], cands[r].score, r+1)
	}
	return out
}

func sharesGenres(target, cand *game.Game) bool {
	if len(target.Genres) == 0 {
		return false
	}
	shared := 0
	for _, g := range target.Genres {
		if slices.Contains(cand.Genres, g) {
			shared++
		}
	}
	return float64(shared) >= genreOverlapThreshold*float64(len(target.Genres))
}
