// Package chi exposes the recommendation API over HTTP.
package chi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gamerec/internal/domain"
	"github.com/kailas-cloud/gamerec/internal/domain/game"
	"github.com/kailas-cloud/gamerec/internal/logger"
	"github.com/kailas-cloud/gamerec/internal/metrics"
	healthuc "github.com/kailas-cloud/gamerec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/gamerec/internal/usecase/recommend"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// ModelInfo identifies the loaded artifact pair.
type ModelInfo struct {
	ID     string
	Source string
}

// Server serves the recommendation API.
type Server struct {
	recommend     *recommenduc.Service
	health        *healthuc.Service
	model         ModelInfo
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recommend *recommenduc.Service,
	health *healthuc.Service,
	model ModelInfo,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		recommend: recommend,
		health:    health,
		model:     model,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownGame, http.StatusNotFound, ErrorCodeGameNotFound),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrQueryTooLong, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidTopK, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotTrained, http.StatusServiceUnavailable, ErrorCodeModelNotLoaded),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/model/status", s.ModelStatus)
	r.Get("/games/search", s.SearchGames)
	r.Get("/games/{game_id}", s.GetGame)
	r.Get("/games/{game_id}/recommendations", s.RecommendByGame)
	r.Post("/recommendations/text", s.RecommendByText)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    string(report.Status),
		Checks:    checks,
		Artifacts: report.Artifacts,
		ModelID:   s.model.ID,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}

// ModelStatus handles GET /model/status.
func (s *Server) ModelStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.recommend.Status()
	resp := ModelStatusResponse{
		Trained:  st.Trained,
		Games:    st.Games,
		Features: st.Features,
		ModelID:  s.model.ID,
		Source:   s.model.Source,
	}
	if !st.TrainedAt.IsZero() {
		t := st.TrainedAt
		resp.TrainedAt = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// SearchGames handles GET /games/search.
func (s *Server) SearchGames(w http.ResponseWriter, r *http.Request) {
	var params SearchParams
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &params.Q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid parameter q")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid parameter limit")
		return
	}

	games, err := s.recommend.Search(r.Context(), params.Q, params.Limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]GameSummary, len(games))
	for i := range games {
		items[i] = gameSummary(&games[i])
	}
	writeJSON(w, http.StatusOK, SearchResponse{Query: params.Q, Games: items, Total: len(items)})
}

// GetGame handles GET /games/{game_id}.
func (s *Server) GetGame(w http.ResponseWriter, r *http.Request) {
	id, ok := gameIDParam(w, r)
	if !ok {
		return
	}
	g, err := s.recommend.Game(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// RecommendByGame handles GET /games/{game_id}/recommendations.
func (s *Server) RecommendByGame(w http.ResponseWriter, r *http.Request) {
	id, ok := gameIDParam(w, r)
	if !ok {
		return
	}
	var params RecommendationParams
	if err := runtime.BindQueryParameter("form", true, false, "top_k", r.URL.Query(), &params.TopK); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid parameter top_k")
		return
	}
	err := runtime.BindQueryParameter("form", true, false, "exclude_similar_genres", r.URL.Query(), &params.ExcludeSimilarGenres)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid parameter exclude_similar_genres")
		return
	}

	ctx := logger.WithFields(r.Context(), zap.Int64("game_id", id))
	target, err := s.recommend.Game(ctx, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	items, err := s.recommend.ByID(ctx, id, params.TopK, derefBool(params.ExcludeSimilarGenres))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RecommendationsResponse{
		GameID:          id,
		GameName:        target.Name,
		Recommendations: items,
		Total:           len(items),
	})
}

// RecommendByText handles POST /recommendations/text.
func (s *Server) RecommendByText(w http.ResponseWriter, r *http.Request) {
	var req TextRecommendationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		logger.FromContext(r.Context()).Debug("invalid request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid request body")
		return
	}

	ctx := logger.WithFields(r.Context(), zap.Int("query_length", len(req.Query)))
	items, err := s.recommend.ByText(ctx, req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TextRecommendationsResponse{
		Query:           req.Query,
		Recommendations: items,
		Total:           len(items),
	})
}

func gameIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "game_id", chi.URLParam(r, "game_id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid parameter game_id")
		return 0, false
	}
	return id, true
}

func gameSummary(g *game.Game) GameSummary {
	return GameSummary{
		ID:        g.ID,
		Name:      g.Name,
		Rating:    g.Rating,
		Genres:    nonNil(g.Genres),
		Platforms: nonNil(g.Platforms),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func derefBool(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
func safeDomainMessage(err error) string {
	var uge *domain.UnknownGameError
	if errors.As(err, &uge) {
		return uge.Error()
	}
	sentinels := []error{
		domain.ErrUnknownGame,
		domain.ErrEmptyQuery,
		domain.ErrQueryTooLong,
		domain.ErrInvalidTopK,
		domain.ErrNotTrained,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
