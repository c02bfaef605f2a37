package gamerec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamerec/internal/artifact/source"
	"github.com/kailas-cloud/gamerec/internal/domain/game"
	"github.com/kailas-cloud/gamerec/internal/engine"
	"github.com/kailas-cloud/gamerec/internal/modelstore"
	healthuc "github.com/kailas-cloud/gamerec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/gamerec/internal/usecase/recommend"
)

// sourceMemory marks a model trained in process.
const sourceMemory = "memory"

// Client is the gamerec SDK entry point. It is safe for concurrent use.
type Client struct {
	cfg       *clientConfig
	eng       *engine.Engine
	models    *modelstore.Store // nil without artifact sources
	recSvc    *recommenduc.Service
	healthSvc *healthuc.Service
	info      modelstore.LoadResult
	closers   []func()
	obs       *observer
}

// New opens the configured artifact sources and loads the model pair,
// falling back to the fallback source when the primary fails.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if !cfg.primary.Enabled() && !cfg.fallback.Enabled() {
		return nil, errors.New("gamerec: artifact source required (use WithLocalDir, WithGCS or WithRedis)")
	}

	c, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	eng, info, err := c.models.Load(ctx)
	c.obs.observe("load", start, err)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("gamerec: %w", err)
	}
	c.wire(eng, info)
	return c, nil
}

// Train fits a model on games in process. Artifact options are optional and
// only needed for Save.
func Train(ctx context.Context, games []Game, opts ...Option) (*Client, TrainingReport, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	c, err := newClient(ctx, cfg)
	if err != nil {
		return nil, TrainingReport{}, err
	}

	normalized := make([]game.Game, len(games))
	for i := range games {
		normalized[i] = games[i].Normalize()
	}

	start := time.Now()
	eng := engine.New(cfg.engine, nil)
	report, err := eng.Train(ctx, normalized)
	c.obs.observe("train", start, err)
	if err != nil {
		c.Close()
		return nil, TrainingReport{}, fmt.Errorf("gamerec: train: %w", err)
	}
	c.wire(eng, modelstore.LoadResult{Source: sourceMemory})
	return c, report, nil
}

func newClient(ctx context.Context, cfg *clientConfig) (*Client, error) {
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg, obs: obs}
	if !cfg.primary.Enabled() && !cfg.fallback.Enabled() {
		return c, nil
	}

	primary, closePrimary, err := source.Open(ctx, cfg.primary)
	if err != nil {
		return nil, fmt.Errorf("gamerec: open primary source: %w", err)
	}
	c.closers = append(c.closers, closePrimary)

	fallback, closeFallback, err := source.Open(ctx, cfg.fallback)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("gamerec: open fallback source: %w", err)
	}
	c.closers = append(c.closers, closeFallback)

	c.models, err = modelstore.New(primary, fallback, cfg.names, zap.NewNop())
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("gamerec: %w", err)
	}
	return c, nil
}

func (c *Client) wire(eng *engine.Engine, info modelstore.LoadResult) {
	c.eng = eng
	c.info = info
	c.recSvc = recommenduc.New(eng, recommenduc.Config{
		DefaultTopK:    c.cfg.defaultTopK,
		MaxTopK:        c.cfg.maxTopK,
		SummaryPreview: c.cfg.preview,
		SearchLimit:    c.cfg.searchLimit,
		MaxSearchLimit: c.cfg.maxSearchLimit,
	})
	var artifacts healthuc.ArtifactChecker
	if c.models != nil {
		artifacts = c.models
	}
	c.healthSvc = healthuc.New(eng, artifacts)
}

// Close releases artifact source connections.
func (c *Client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Save writes the model pair to the primary source, or to the fallback
// source when no primary is configured. It returns the new model id.
func (c *Client) Save(ctx context.Context) (id string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("save", start, err) }()

	if c.models == nil {
		return "", errors.New("gamerec: no artifact source configured")
	}
	res, err := c.models.Save(ctx, c.eng)
	if err != nil {
		return "", fmt.Errorf("gamerec: save: %w", err)
	}
	c.info = modelstore.LoadResult{ModelID: res.ModelID, Source: c.info.Source}
	return res.ModelID, nil
}

// Recommend returns up to topK games similar to the game with id.
// topK <= 0 uses the default.
func (c *Client) Recommend(ctx context.Context, id int64, topK int) (recs []Recommendation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend", start, err) }()

	return c.recSvc.ByID(ctx, id, topKPtr(topK), false)
}

// RecommendDiverse is Recommend, skipping games that mostly share the
// target's genres.
func (c *Client) RecommendDiverse(ctx context.Context, id int64, topK int) (recs []Recommendation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend_diverse", start, err) }()

	return c.recSvc.ByID(ctx, id, topKPtr(topK), true)
}

// RecommendText returns up to topK games matching a free text description.
// topK <= 0 uses the default.
func (c *Client) RecommendText(ctx context.Context, text string, topK int) (recs []Recommendation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend_text", start, err) }()

	return c.recSvc.ByText(ctx, text, topKPtr(topK))
}

// Game returns one game of the model corpus.
func (c *Client) Game(ctx context.Context, id int64) (Game, error) {
	return c.recSvc.Game(ctx, id)
}

// Search returns up to limit games whose name contains query.
// limit <= 0 uses the default; above the maximum it fails with ErrInvalidTopK.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Game, error) {
	return c.recSvc.Search(ctx, query, topKPtr(limit))
}

// Status describes the loaded model.
func (c *Client) Status() ModelStatus {
	st := c.recSvc.Status()
	return ModelStatus{
		ModelID:   c.info.ModelID,
		Source:    c.info.Source,
		Games:     st.Games,
		Features:  st.Features,
		TrainedAt: st.TrainedAt,
	}
}

func topKPtr(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
