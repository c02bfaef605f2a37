package recommend

import (
	"github.com/kailas-cloud/gamerec/internal/domain/game"
	"github.com/kailas-cloud/gamerec/internal/domain/recommendation"
	"github.com/kailas-cloud/gamerec/internal/engine"
)

// Model is the read-only query surface of a trained engine.
type Model interface {
	RecommendByID(id int64, topK int, opts ...engine.Option) ([]recommendation.Recommendation, error)
	RecommendByText(text string, topK int) ([]recommendation.Recommendation, error)
	Game(id int64) (game.Game, error)
	Search(query string, limit int) ([]game.Game, error)
	Status() engine.Status
}
