package engine

import (
	"github.com/kailas-cloud/gamerec/internal/domain"
	"github.com/kailas-cloud/gamerec/internal/domain/game"
)

const evaluationTopK = 5

// Evaluation reports how well a held-out list is served by the model.
type Evaluation struct {
	Samples int `json:"samples"`
	Covered int `json:"covered"`
	// Coverage is the share of samples with at least one recommendation.
	Coverage float64 `json:"coverage"`
	// MeanTopScore averages the mean top-5 similarity of covered samples.
	MeanTopScore float64 `json:"mean_top_score"`
}

// Evaluate requests top-5 recommendations for every sample. Samples unknown
// to the model count against coverage.
func (e *Engine) Evaluate(samples []game.Game) (Evaluation, error) {
	if !e.Trained() {
		return Evaluation{}, domain.ErrNotTrained
	}
	ev := Evaluation{Samples: len(samples)}
	var total float64
	for i := range samples {
		recs, err := e.RecommendByID(samples[i].ID, evaluationTopK)
		if err != nil || len(recs) == 0 {
			continue
		}
		var sum float64
		for j := range recs {
			sum += recs[j].Score()
		}
		total += sum / float64(len(recs))
		ev.Covered++
	}
	if ev.Covered > 0 {
		ev.MeanTopScore = total / float64(ev.Covered)
	}
	if ev.Samples > 0 {
		ev.Coverage = float64(ev.Covered) / float64(ev.Samples)
	}
	return ev, nil
}
