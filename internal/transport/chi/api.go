package chi

import (
	"time"

	"github.com/kailas-cloud/gamerec/internal/modelstore"
	recommenduc "github.com/kailas-cloud/gamerec/internal/usecase/recommend"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeGameNotFound     ErrorCode = "game_not_found"
	ErrorCodeModelNotLoaded   ErrorCode = "model_not_loaded"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Artifacts modelstore.Health `json:"artifacts"`
	ModelID   string            `json:"model_id,omitempty"`
}

// ModelStatusResponse is the body of GET /model/status.
type ModelStatusResponse struct {
	Trained   bool       `json:"trained"`
	Games     int        `json:"games"`
	Features  int        `json:"features"`
	TrainedAt *time.Time `json:"trained_at,omitempty"`
	ModelID   string     `json:"model_id,omitempty"`
	Source    string     `json:"source,omitempty"`
}

// TextRecommendationRequest is the body of POST /recommendations/text.
type TextRecommendationRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

// RecommendationsResponse lists recommendations for a game.
type RecommendationsResponse struct {
	GameID          int64              `json:"game_id"`
	GameName        string             `json:"game_name"`
	Recommendations []recommenduc.Item `json:"recommendations"`
	Total           int                `json:"total"`
}

// TextRecommendationsResponse lists recommendations for a text query.
type TextRecommendationsResponse struct {
	Query           string             `json:"query"`
	Recommendations []recommenduc.Item `json:"recommendations"`
	Total           int                `json:"total"`
}

// GameSummary is a compact game record used in search results.
type GameSummary struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Rating    *float64 `json:"rating"`
	Genres    []string `json:"genres"`
	Platforms []string `json:"platforms"`
}

// SearchResponse is the body of GET /games/search.
type SearchResponse struct {
	Query string        `json:"query"`
	Games []GameSummary `json:"games"`
	Total int           `json:"total"`
}

// RecommendationParams are the query parameters of GET /games/{game_id}/recommendations.
type RecommendationParams struct {
	TopK                 *int  `form:"top_k,omitempty" json:"top_k,omitempty"`
	ExcludeSimilarGenres *bool `form:"exclude_similar_genres,omitempty" json:"exclude_similar_genres,omitempty"`
}

// SearchParams are the query parameters of GET /games/search.
type SearchParams struct {
	Q     string `form:"q" json:"q"`
	Limit *int   `form:"limit,omitempty" json:"limit,omitempty"`
}
