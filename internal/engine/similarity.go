package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/gamerec/internal/matrix"
)

// pairwiseCosine builds the N×N cosine matrix. Only the upper triangle is
// computed; each cell is mirrored so the result is exactly symmetric.
// The diagonal stays 0. Task i owns cells (i, j) and (j, i) for j > i.
func pairwiseCosine(ctx context.Context, fm *matrix.Dense, norms []float64, workers int) ([]float32, error) {
	n := fm.Rows()
	sim := make([]float32, n*n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ri := fm.Row(i)
			for j := i + 1; j < n; j++ {
				v := float32(matrix.Cosine(ri, fm.Row(j), norms[i], norms[j]))
				sim[i*n+j] = v
				sim[j*n+i] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sim, nil
}

// queryScores returns the cosine of v against every feature row.
func queryScores(fm *matrix.Dense, norms []float64, v []float64) []float64 {
	nv := matrix.Norm(v)
	scores := make([]float64, fm.Rows())
	for i := range scores {
		scores[i] = matrix.Cosine(v, fm.Row(i), nv, norms[i])
	}
	return scores
}
