package gamerec

import (
	"time"

	"github.com/kailas-cloud/gamerec/internal/domain/game"
	"github.com/kailas-cloud/gamerec/internal/engine"
	recommenduc "github.com/kailas-cloud/gamerec/internal/usecase/recommend"
)

// Game is one record of the corpus.
type Game = game.Game

// Recommendation is one ranked result.
type Recommendation = recommenduc.Item

// TrainingReport summarizes an in-process training run.
type TrainingReport = engine.TrainingReport

// ModelStatus describes the model held by a Client.
type ModelStatus struct {
	ModelID   string
	Source    string // primary, fallback or memory
	Games     int
	Features  int
	TrainedAt time.Time
}
