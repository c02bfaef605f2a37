package health

import (
	"context"

	"github.com/kailas-cloud/gamerec/internal/modelstore"
)

// ArtifactChecker probes the artifact sources.
type ArtifactChecker interface {
	HealthCheck(ctx context.Context) modelstore.Health
}

// ModelChecker reports whether a model is loaded.
type ModelChecker interface {
	Trained() bool
}
