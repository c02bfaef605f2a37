package gamerec

import "github.com/kailas-cloud/gamerec/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotTrained       = domain.ErrNotTrained
	ErrUnknownGame      = domain.ErrUnknownGame
	ErrEmptyQuery       = domain.ErrEmptyQuery
	ErrQueryTooLong     = domain.ErrQueryTooLong
	ErrInvalidTopK      = domain.ErrInvalidTopK
	ErrEmptyTrainingSet = domain.ErrEmptyTrainingSet
	ErrCorpusTooLarge   = domain.ErrCorpusTooLarge
	ErrModelUnavailable = domain.ErrModelUnavailable
	ErrArtifactMismatch = domain.ErrArtifactMismatch
	ErrArtifactCorrupt  = domain.ErrArtifactCorrupt
)
