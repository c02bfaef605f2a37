package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGame signals a record rejected at the ingestion boundary.
	ErrInvalidGame = errors.New("invalid game record")
	// ErrFeatureExtraction signals an irrecoverable feature extraction failure.
	ErrFeatureExtraction = errors.New("feature extraction failed")
	// ErrNotFitted signals use of a feature extractor before it was fit.
	ErrNotFitted = errors.New("feature extractor not fitted")
	// ErrEmptyTrainingSet signals that no trainable records remained after filtering.
	ErrEmptyTrainingSet = errors.New("empty training set")
	// ErrCorpusTooLarge signals a corpus above the dense similarity ceiling.
	ErrCorpusTooLarge = errors.New("corpus too large for dense similarity matrix")
	// ErrNotTrained signals a query against an untrained engine.
	ErrNotTrained = errors.New("model not trained")
	// ErrAlreadyTrained signals a second Train call on the same engine.
	ErrAlreadyTrained = errors.New("model already trained")
	// ErrUnknownGame signals a game id that is not part of the trained corpus.
	ErrUnknownGame = errors.New("unknown game")
	// ErrEmptyQuery signals an empty or whitespace-only text query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrQueryTooLong signals a text query above the configured length limit.
	ErrQueryTooLong = errors.New("query too long")
	// ErrInvalidTopK signals a non-positive or over-limit top_k.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrArtifactNotFound signals a missing artifact blob.
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrArtifactCorrupt signals an artifact that failed format or checksum validation.
	ErrArtifactCorrupt = errors.New("artifact corrupt")
	// ErrArtifactMismatch signals an engine artifact loaded with a foreign extractor artifact.
	ErrArtifactMismatch = errors.New("artifact pair mismatch")
	// ErrModelUnavailable signals that no artifact source produced a usable model.
	ErrModelUnavailable = errors.New("model unavailable")
)

// UnknownGameError wraps ErrUnknownGame with the requested id.
type UnknownGameError struct {
	GameID int64
}

func (e *UnknownGameError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnknownGame.Error(), e.GameID)
}

func (e *UnknownGameError) Unwrap() error { return ErrUnknownGame }

// NewUnknownGame creates an unknown game error.
func NewUnknownGame(id int64) error {
	return &UnknownGameError{GameID: id}
}

// ArtifactError attaches the artifact name and source to a load or save failure.
type ArtifactError struct {
	Name   string
	Source string
	Err    error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s (%s): %v", e.Name, e.Source, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }
