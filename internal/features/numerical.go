package features

import "github.com/kailas-cloud/gamerec/internal/domain/game"

type numericColumn struct {
	name  string
	value func(g *game.Game) (float64, bool)
}

var numericColumns = []numericColumn{
	{"rating", func(g *game.Game) (float64, bool) {
		if g.Rating == nil {
			return 0, false
		}
		return *g.Rating, true
	}},
	{"rating_count", func(g *game.Game) (float64, bool) {
		return float64(g.RatingCount), true
	}},
	{"release_year", func(g *game.Game) (float64, bool) {
		if g.ReleaseYear == nil {
			return 0, false
		}
		return float64(*g.ReleaseYear), true
	}},
	{"summary_length", func(g *game.Game) (float64, bool) {
		return float64(g.SummaryLength()), true
	}},
}

func fitScalers(games []game.Game) []Scaler {
	scalers := make([]Scaler, len(numericColumns))
	values := make([]float64, len(games))
	present := make([]bool, len(games))
	for c, col := range numericColumns {
		for i := range games {
			values[i], present[i] = col.value(&games[i])
		}
		scalers[c] = FitScaler(values, present)
	}
	return scalers
}
