// Package recommendation holds the ranked output of the similarity engine.
package recommendation

import "github.com/kailas-cloud/gamerec/internal/domain/game"

// Recommendation is a single ranked candidate.
type Recommendation struct {
	game  game.Game
	score float64
	rank  int
}

// New creates a recommendation. rank is 1-based.
func New(g game.Game, score float64, rank int) Recommendation {
	return Recommendation{game: g, score: score, rank: rank}
}

// GameID returns the recommended game's id.
func (r *Recommendation) GameID() int64 { return r.game.ID }

// Score returns the cosine similarity to the query.
func (r *Recommendation) Score() float64 { return r.score }

// Rank returns the 1-based position in the result list.
func (r *Recommendation) Rank() int { return r.rank }

// Game returns the full metadata of the recommended game.
func (r *Recommendation) Game() game.Game { return r.game }
