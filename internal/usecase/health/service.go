package health

import (
	"context"

	"github.com/kailas-cloud/gamerec/internal/modelstore"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckSkipped marks a component that is not configured.
	CheckSkipped CheckResult = "skipped"
)

// Check names.
const (
	CheckModel    = "model"
	CheckPrimary  = "artifacts_primary"
	CheckFallback = "artifacts_fallback"
)

// Report aggregates health check results.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	Artifacts modelstore.Health
}

// Service coordinates health checks.
type Service struct {
	artifacts ArtifactChecker
	model     ModelChecker
}

// New creates a Service. artifacts can be nil.
func New(model ModelChecker, artifacts ArtifactChecker) *Service {
	return &Service{model: model, artifacts: artifacts}
}

// Check runs health checks against all components. The model decides between
// serving and not serving; artifact sources only degrade the report, since
// they matter again on the next restart.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.model != nil && s.model.Trained() {
		checks[CheckModel] = CheckOK
	} else {
		checks[CheckModel] = CheckError
	}

	var h modelstore.Health
	if s.artifacts != nil {
		h = s.artifacts.HealthCheck(ctx)
		checks[CheckPrimary] = sourceResult(h.Primary)
		checks[CheckFallback] = sourceResult(h.Fallback)
	}

	status := Healthy
	if checks[CheckModel] == CheckError {
		status = Unhealthy
	} else {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks, Artifacts: h}
}

func sourceResult(h *modelstore.SourceHealth) CheckResult {
	switch {
	case h == nil:
		return CheckSkipped
	case h.Ready():
		return CheckOK
	default:
		return CheckError
	}
}
