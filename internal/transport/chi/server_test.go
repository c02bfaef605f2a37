package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/kailas-cloud/gamerec/internal/domain/game"
	"github.com/kailas-cloud/gamerec/internal/engine"
	healthuc "github.com/kailas-cloud/gamerec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/gamerec/internal/usecase/recommend"
)

// --- Helpers ---

func ptr[T any](v T) *T { return &v }

func corpus() []game.Game {
	return []game.Game{
		{ID: 1, Name: "Star Runner", Summary: "Fast platformer with jumping and coins", Genres: []string{"Platform"},
			Platforms: []string{"PC"}, Rating: ptr(81.0), RatingCount: 120, ReleaseYear: ptr(2015)},
		{ID: 2, Name: "Coin Quest", Summary: "Jumping platformer full of coins", Genres: []string{"Adventure", "Platform"},
			Platforms: []string{"Switch"}, RatingCount: 60},
		{ID: 3, Name: "Road Blaze", Summary: "Arcade racing through neon streets", Genres: []string{"Racing"},
			Platforms: []string{"PS4"}, Rating: ptr(70.0), RatingCount: 8, ReleaseYear: ptr(2019)},
		{ID: 4, Name: "Drift Kings", Summary: "Street racing with tuned cars", Genres: []string{"Racing"},
			Platforms: []string{"PC"}, Rating: ptr(66.0), RatingCount: 300},
	}
}

func newTestRouter(t *testing.T, trained bool) http.Handler {
	t.Helper()
	eng := engine.New(engine.DefaultConfig(), nil)
	if trained {
		if _, err := eng.Train(context.Background(), corpus()); err != nil {
			t.Fatalf("train: %v", err)
		}
	}
	rec := recommenduc.New(eng, recommenduc.Config{
		DefaultTopK: 10, MaxTopK: 50, SummaryPreview: 20, SearchLimit: 20, MaxSearchLimit: 100, MaxQueryLength: 200,
	})
	srv := NewServer(rec, healthuc.New(eng, nil), ModelInfo{ID: "test-model", Source: "primary"}, nil)

	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

// --- Tests ---

func TestRecommendByGame(t *testing.T) {
	h := newTestRouter(t, true)

	rr := do(t, h, http.MethodGet, "/games/1/recommendations?top_k=2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[RecommendationsResponse](t, rr)
	if resp.GameID != 1 || resp.GameName != "Star Runner" {
		t.Errorf("unexpected target %d/%q", resp.GameID, resp.GameName)
	}
	if resp.Total != 2 || len(resp.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", resp.Total)
	}
	for _, item := range resp.Recommendations {
		if item.GameID == 1 {
			t.Error("game recommended to itself")
		}
	}
	if resp.Recommendations[0].GameID != 2 {
		t.Errorf("expected Coin Quest first, got %d", resp.Recommendations[0].GameID)
	}
	if resp.Recommendations[0].SimilarityScore < resp.Recommendations[1].SimilarityScore {
		t.Error("recommendations not sorted by score")
	}
}

func TestRecommendByGame_DefaultTopKClamped(t *testing.T) {
	h := newTestRouter(t, true)

	resp := decode[RecommendationsResponse](t, do(t, h, http.MethodGet, "/games/3/recommendations", ""))
	if resp.Total != 3 {
		t.Errorf("expected corpus size - 1 results, got %d", resp.Total)
	}
}

func TestRecommendByGame_Errors(t *testing.T) {
	h := newTestRouter(t, true)

	tests := []struct {
		name   string
		target string
		status int
		code   ErrorCode
	}{
		{"unknown game", "/games/999/recommendations", http.StatusNotFound, ErrorCodeGameNotFound},
		{"non-numeric id", "/games/abc/recommendations", http.StatusBadRequest, ErrorCodeBadRequest},
		{"zero top_k", "/games/1/recommendations?top_k=0", http.StatusBadRequest, ErrorCodeValidationFailed},
		{"top_k above max", "/games/1/recommendations?top_k=51", http.StatusBadRequest, ErrorCodeValidationFailed},
		{"non-numeric top_k", "/games/1/recommendations?top_k=ten", http.StatusBadRequest, ErrorCodeBadRequest},
		{"bad flag", "/games/1/recommendations?exclude_similar_genres=maybe", http.StatusBadRequest, ErrorCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, tt.target, "")
			if rr.Code != tt.status {
				t.Fatalf("got %d, want %d: %s", rr.Code, tt.status, rr.Body.String())
			}
			if e := decode[ErrorResponse](t, rr); e.Code != tt.code {
				t.Errorf("code: got %s, want %s", e.Code, tt.code)
			}
		})
	}
}

func TestRecommendByGame_ExcludeSimilarGenres(t *testing.T) {
	h := newTestRouter(t, true)

	resp := decode[RecommendationsResponse](t,
		do(t, h, http.MethodGet, "/games/3/recommendations?exclude_similar_genres=true", ""))
	for _, item := range resp.Recommendations {
		if item.GameID == 4 {
			t.Error("expected same-genre game to be excluded")
		}
	}
}

func TestRecommendByText(t *testing.T) {
	h := newTestRouter(t, true)

	rr := do(t, h, http.MethodPost, "/recommendations/text", `{"query":"street racing","top_k":3}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[TextRecommendationsResponse](t, rr)
	if resp.Query != "street racing" || resp.Total != 3 {
		t.Errorf("unexpected response %+v", resp)
	}
	for _, item := range resp.Recommendations {
		if len([]rune(item.Summary)) > 23 {
			t.Errorf("summary not truncated: %q", item.Summary)
		}
	}
}

func TestRecommendByText_Errors(t *testing.T) {
	h := newTestRouter(t, true)

	tests := []struct {
		name    string
		body    string
		code    ErrorCode
		message string
	}{
		{"empty query", `{"query":"   "}`, ErrorCodeValidationFailed, "empty query"},
		{"missing query", `{}`, ErrorCodeValidationFailed, "empty query"},
		{"invalid json", `{"query":`, ErrorCodeBadRequest, "invalid request body"},
		{"wrong type", `{"query":42}`, ErrorCodeBadRequest, "invalid request body"},
		{"bad top_k", `{"query":"racing","top_k":-1}`, ErrorCodeValidationFailed, "invalid top_k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/recommendations/text", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("got %d, want 400", rr.Code)
			}
			e := decode[ErrorResponse](t, rr)
			if e.Code != tt.code {
				t.Errorf("code: got %s, want %s", e.Code, tt.code)
			}
			if e.Message != tt.message {
				t.Errorf("message: got %q, want %q", e.Message, tt.message)
			}
		})
	}
}

func TestGetGame(t *testing.T) {
	h := newTestRouter(t, true)

	rr := do(t, h, http.MethodGet, "/games/3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	if g := decode[game.Game](t, rr); g.Name != "Road Blaze" || g.Rating == nil {
		t.Errorf("unexpected game %+v", g)
	}
	if rr := do(t, h, http.MethodGet, "/games/77", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown game: got %d", rr.Code)
	}
}

func TestSearchGames(t *testing.T) {
	h := newTestRouter(t, true)

	resp := decode[SearchResponse](t, do(t, h, http.MethodGet, "/games/search?q=COIN", ""))
	if resp.Total != 1 || resp.Games[0].ID != 2 {
		t.Errorf("unexpected search result %+v", resp)
	}
	if rr := do(t, h, http.MethodGet, "/games/search", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("missing q: got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/games/search?q=a&limit=0", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("zero limit: got %d", rr.Code)
	}
}

func TestModelStatus(t *testing.T) {
	h := newTestRouter(t, true)

	resp := decode[ModelStatusResponse](t, do(t, h, http.MethodGet, "/model/status", ""))
	if !resp.Trained || resp.Games != 4 || resp.Features == 0 || resp.TrainedAt == nil {
		t.Errorf("unexpected status %+v", resp)
	}
	if resp.ModelID != "test-model" || resp.Source != "primary" {
		t.Errorf("unexpected model info %+v", resp)
	}
}

func TestUntrainedModel(t *testing.T) {
	h := newTestRouter(t, false)

	rr := do(t, h, http.MethodGet, "/games/1/recommendations", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
	if e := decode[ErrorResponse](t, rr); e.Code != ErrorCodeModelNotLoaded {
		t.Errorf("code: got %s", e.Code)
	}

	rr = do(t, h, http.MethodPost, "/recommendations/text", `{"query":"racing"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("text: got %d, want 503", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/health", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("health: got %d, want 503", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	h := newTestRouter(t, true)

	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d", rr.Code)
	}
	resp := decode[HealthResponse](t, rr)
	if resp.Status != string(healthuc.Healthy) || resp.Checks[healthuc.CheckModel] != string(healthuc.CheckOK) {
		t.Errorf("unexpected health %+v", resp)
	}
}

func TestMetricsAndNotFound(t *testing.T) {
	h := newTestRouter(t, true)

	if rr := do(t, h, http.MethodGet, "/metrics", ""); rr.Code != http.StatusOK {
		t.Errorf("metrics: got %d", rr.Code)
	}
	rr := do(t, h, http.MethodGet, "/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d", rr.Code)
	}
	if e := decode[ErrorResponse](t, rr); e.Code != ErrorCodeNotFound {
		t.Errorf("code: got %s", e.Code)
	}
}
