package modelstore

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/gamerec/internal/artifact"
)

// SourceHealth is the probe result of one artifact source.
type SourceHealth struct {
	Location  string          `json:"location"`
	Reachable bool            `json:"reachable"`
	Error     string          `json:"error,omitempty"`
	Artifacts map[string]bool `json:"artifacts"`
}

// Ready reports whether the source could serve a full pair.
func (h *SourceHealth) Ready() bool {
	if h == nil || !h.Reachable {
		return false
	}
	for _, ok := range h.Artifacts {
		if !ok {
			return false
		}
	}
	return len(h.Artifacts) > 0
}

// Health is the status of both sources, independent of any loaded model.
type Health struct {
	Primary  *SourceHealth `json:"primary,omitempty"`
	Fallback *SourceHealth `json:"fallback,omitempty"`
}

// HealthCheck probes both sources concurrently.
func (s *Store) HealthCheck(ctx context.Context) Health {
	var h Health
	var g errgroup.Group
	if s.primary != nil {
		g.Go(func() error {
			h.Primary = s.probe(ctx, s.primary)
			return nil
		})
	}
	if s.fallback != nil {
		g.Go(func() error {
			h.Fallback = s.probe(ctx, s.fallback)
			return nil
		})
	}
	_ = g.Wait()
	return h
}

func (s *Store) probe(ctx context.Context, src artifact.Store) *SourceHealth {
	res := &SourceHealth{
		Location:  src.Describe(),
		Artifacts: map[string]bool{s.names.Extractor: false, s.names.Engine: false},
	}
	if err := src.Ping(ctx); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Reachable = true
	for _, name := range []string{s.names.Extractor, s.names.Engine} {
		ok, err := src.Exists(ctx, name)
		if err != nil {
			res.Error = err.Error()
			continue
		}
		res.Artifacts[name] = ok
	}
	return res
}
