package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/kailas-cloud/gamerec/internal/domain"
	"github.com/kailas-cloud/gamerec/internal/domain/game"
)

func ptr[T any](v T) *T { return &v }

func abcCorpus() []game.Game {
	return []game.Game{
		{ID: 1, Name: "Alpha", Summary: "platformer", Genres: []string{"Platform"}},
		{ID: 2, Name: "Beta", Summary: "platformer with puzzles", Genres: []string{"Platform", "Puzzle"}},
		{ID: 3, Name: "Gamma", Summary: "racing game", Genres: []string{"Racing"}},
	}
}

func mixedCorpus() []game.Game {
	return []game.Game{
		{ID: 10, Name: "Star Runner", Summary: "A fast platformer with jumping and coins", Genres: []string{"Platform"},
			Platforms: []string{"PC"}, Rating: ptr(81.0), RatingCount: 120, ReleaseYear: ptr(2015)},
		{ID: 11, Name: "Coin Quest", Summary: "Jumping platformer full of coins and secrets", Genres: []string{"Platform", "Adventure"},
			Platforms: []string{"Switch"}, Rating: ptr(74.0), RatingCount: 60, ReleaseYear: ptr(2018)},
		{ID: 12, Name: "Road Blaze", Summary: "Arcade racing through neon city streets", Genres: []string{"Racing"},
			Platforms: []string{"PS4"}, RatingCount: 8, ReleaseYear: ptr(2019)},
		{ID: 13, Name: "Drift Kings", Summary: "Street racing with tuned cars", Genres: []string{"Racing", "Sport"},
			Platforms: []string{"PC", "PS4"}, Rating: ptr(66.0), RatingCount: 300},
		{ID: 14, Name: "Farm Days", Summary: "Relaxing farming and fishing life", Genres: []string{"Simulator"},
			Platforms: []string{"Switch"}, Rating: ptr(88.5), RatingCount: 900, ReleaseYear: ptr(2016)},
		{ID: 15, Name: "No Summary", Genres: []string{"Puzzle"}},
		{ID: 16, Name: "No Genre", Summary: "A lonely record without genres"},
	}
}

func trained(t *testing.T, games []game.Game) *Engine {
	t.Helper()
	e := New(DefaultConfig(), nil)
	if _, err := e.Train(context.Background(), games); err != nil {
		t.Fatalf("train: %v", err)
	}
	return e
}

func TestTrain_FiltersAndReports(t *testing.T) {
	e := New(DefaultConfig(), nil)
	r, err := e.Train(context.Background(), mixedCorpus())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if r.Samples != 5 || r.Dropped != 2 {
		t.Errorf("expected 5 samples and 2 dropped, got %d/%d", r.Samples, r.Dropped)
	}
	if r.Features != e.Status().Features || r.Features == 0 {
		t.Errorf("expected feature count %d, got %d", e.Status().Features, r.Features)
	}
	if r.Rating.Rated != 4 || r.Rating.Min != 66 || r.Rating.Max != 88.5 {
		t.Errorf("unexpected rating stats %+v", r.Rating)
	}
	if r.Similarity.Min > r.Similarity.Mean || r.Similarity.Mean > r.Similarity.Max {
		t.Errorf("inconsistent similarity stats %+v", r.Similarity)
	}
	if _, err := e.Game(15); !errors.Is(err, domain.ErrUnknownGame) {
		t.Errorf("expected non-trainable record to be dropped, got %v", err)
	}
}

func TestTrain_EmptyTrainingSet(t *testing.T) {
	e := New(DefaultConfig(), nil)
	_, err := e.Train(context.Background(), []game.Game{{ID: 1, Name: "x"}})
	if !errors.Is(err, domain.ErrEmptyTrainingSet) {
		t.Fatalf("expected ErrEmptyTrainingSet, got %v", err)
	}
	if e.Trained() {
		t.Error("engine must stay untrained")
	}
}

func TestTrain_Twice(t *testing.T) {
	e := trained(t, abcCorpus())
	if _, err := e.Train(context.Background(), abcCorpus()); !errors.Is(err, domain.ErrAlreadyTrained) {
		t.Errorf("expected ErrAlreadyTrained, got %v", err)
	}
}

func TestTrain_CorpusCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCorpusSize = 2
	e := New(cfg, nil)
	if _, err := e.Train(context.Background(), abcCorpus()); !errors.Is(err, domain.ErrCorpusTooLarge) {
		t.Errorf("expected ErrCorpusTooLarge, got %v", err)
	}
}

func TestTrain_DuplicateID(t *testing.T) {
	games := abcCorpus()
	games[2].ID = 1
	e := New(DefaultConfig(), nil)
	if _, err := e.Train(context.Background(), games); !errors.Is(err, domain.ErrInvalidGame) {
		t.Errorf("expected ErrInvalidGame, got %v", err)
	}
}

func TestTrain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(DefaultConfig(), nil)
	if _, err := e.Train(ctx, mixedCorpus()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if e.Trained() {
		t.Error("cancelled training must not publish a model")
	}
}

func TestSimilarityMatrix_DiagonalAndSymmetry(t *testing.T) {
	e := trained(t, mixedCorpus())
	m := e.state.Load()
	n := m.size()
	for i := 0; i < n; i++ {
		if m.sim(i, i) != 0 {
			t.Errorf("diagonal %d: expected 0, got %v", i, m.sim(i, i))
		}
		for j := 0; j < n; j++ {
			if m.sim(i, j) != m.sim(j, i) {
				t.Errorf("(%d,%d): asymmetric %v vs %v", i, j, m.sim(i, j), m.sim(j, i))
			}
			if v := m.sim(i, j); v < -1-1e-6 || v > 1+1e-6 || math.IsNaN(v) {
				t.Errorf("(%d,%d): out of range %v", i, j, v)
			}
		}
	}
}

func TestRecommendByID_BeforeTrain(t *testing.T) {
	e := New(DefaultConfig(), nil)
	if _, err := e.RecommendByID(1, 5); !errors.Is(err, domain.ErrNotTrained) {
		t.Errorf("expected ErrNotTrained, got %v", err)
	}
	if _, err := e.RecommendByText("anything", 5); !errors.Is(err, domain.ErrNotTrained) {
		t.Errorf("expected ErrNotTrained, got %v", err)
	}
}

func TestRecommendByID_SharedGenreRanksFirst(t *testing.T) {
	e := trained(t, abcCorpus())

	recs, err := e.RecommendByID(1, 2)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 results, got %d", len(recs))
	}
	if recs[0].GameID() != 2 || recs[1].GameID() != 3 {
		t.Errorf("expected B before C, got %d, %d", recs[0].GameID(), recs[1].GameID())
	}
	if recs[0].Score() <= recs[1].Score() {
		t.Errorf("expected descending scores, got %v, %v", recs[0].Score(), recs[1].Score())
	}
	if recs[0].Rank() != 1 || recs[1].Rank() != 2 {
		t.Errorf("expected ranks 1,2, got %d,%d", recs[0].Rank(), recs[1].Rank())
	}
}

func TestRecommendByID_NeverReturnsSelfAndClamps(t *testing.T) {
	e := trained(t, mixedCorpus())
	games, _ := e.Games()

	for _, g := range games {
		recs, err := e.RecommendByID(g.ID, 100)
		if err != nil {
			t.Fatalf("recommend %d: %v", g.ID, err)
		}
		if len(recs) != len(games)-1 {
			t.Errorf("game %d: expected %d results, got %d", g.ID, len(games)-1, len(recs))
		}
		for i := range recs {
			if recs[i].GameID() == g.ID {
				t.Errorf("game %d recommended itself", g.ID)
			}
			if i > 0 && recs[i].Score() > recs[i-1].Score() {
				t.Errorf("game %d: results not sorted at %d", g.ID, i)
			}
		}
	}
}

func TestRecommendByID_Errors(t *testing.T) {
	e := trained(t, abcCorpus())

	_, err := e.RecommendByID(99, 5)
	var unknown *domain.UnknownGameError
	if !errors.As(err, &unknown) || unknown.GameID != 99 {
		t.Errorf("expected UnknownGameError for 99, got %v", err)
	}
	for _, k := range []int{0, -3} {
		if _, err := e.RecommendByID(1, k); !errors.Is(err, domain.ErrInvalidTopK) {
			t.Errorf("top_k %d: expected ErrInvalidTopK, got %v", k, err)
		}
	}
}

func TestRecommendByID_ExcludeSimilarGenres(t *testing.T) {
	e := trained(t, mixedCorpus())

	recs, err := e.RecommendByID(10, 10, ExcludeSimilarGenres())
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	for i := range recs {
		if recs[i].GameID() == 11 {
			t.Error("expected game sharing all genres to be excluded")
		}
	}
	if len(recs) != 3 {
		t.Errorf("expected 3 results, got %d", len(recs))
	}
}

func farmingCorpus() []game.Game {
	return []game.Game{
		{ID: 1, Name: "Blade Storm", Summary: "Sword combat", Genres: []string{"Action"},
			Platforms: []string{"PC"}, Rating: ptr(71.0), RatingCount: 40, ReleaseYear: ptr(2012)},
		{ID: 2, Name: "Coin Quest", Summary: "Jumping platformer full of coins", Genres: []string{"Adventure"},
			Platforms: []string{"Switch"}, RatingCount: 60},
		{ID: 3, Name: "Road Blaze", Summary: "Arcade racing through neon streets", Genres: []string{"Racing"},
			Platforms: []string{"PS4"}, Rating: ptr(70.0), RatingCount: 8, ReleaseYear: ptr(2019)},
		{ID: 4, Name: "Harvest Valley", Summary: "A long and relaxing farming life where you plant crops, " +
			"raise animals, fish in quiet rivers, befriend villagers and slowly restore an overgrown farm " +
			"across many seasons", Genres: []string{"Simulator"},
			Platforms: []string{"PC", "Switch"}, Rating: ptr(91.0), RatingCount: 2500, ReleaseYear: ptr(2016)},
		{ID: 5, Name: "Drift Kings", Summary: "Street racing with tuned cars", Genres: []string{"Racing"},
			Platforms: []string{"PC"}, Rating: ptr(66.0), RatingCount: 300},
		{ID: 6, Name: "Tiny Acres", Summary: "Cozy farming with small fields through the seasons",
			Genres: []string{"Simulator"}, Platforms: []string{"Switch"}, RatingCount: 15, ReleaseYear: ptr(2021)},
	}
}

func TestRecommendByText(t *testing.T) {
	e := trained(t, farmingCorpus())

	recs, err := e.RecommendByText("farming", 6)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(recs) != 6 {
		t.Fatalf("expected 6 results, got %d", len(recs))
	}
	top := []int64{recs[0].GameID(), recs[1].GameID()}
	slices.Sort(top)
	if !slices.Equal(top, []int64{4, 6}) {
		t.Errorf("expected the farming games first, got %v", top)
	}
	for i, r := range recs {
		if i < 2 && r.Score() <= 0 {
			t.Errorf("result %d: expected positive score, got %v", i, r.Score())
		}
		if i >= 2 && r.Score() != 0 {
			t.Errorf("result %d (game %d): expected 0 without text overlap, got %v", i, r.GameID(), r.Score())
		}
	}
}

func TestRecommendByText_IgnoresQueryLength(t *testing.T) {
	e := trained(t, farmingCorpus())

	short, err := e.RecommendByText("farming", 2)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	long, err := e.RecommendByText("farming farming and more farming in quiet peaceful places", 2)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	for i := range short {
		if short[i].GameID() != long[i].GameID() {
			t.Errorf("rank %d: query length changed the result, %d vs %d", i, short[i].GameID(), long[i].GameID())
		}
	}
}

func TestRecommendByText_NoOverlap(t *testing.T) {
	e := trained(t, abcCorpus())

	recs, err := e.RecommendByText("space exploration adventure", 5)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("expected clamp to corpus size 3, got %d", len(recs))
	}
	for i := range recs {
		if math.IsNaN(recs[i].Score()) {
			t.Errorf("result %d: NaN score", i)
		}
	}
}

func TestRecommendByText_EmptyQuery(t *testing.T) {
	e := trained(t, abcCorpus())
	for _, q := range []string{"", "   \t"} {
		if _, err := e.RecommendByText(q, 5); !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("query %q: expected ErrEmptyQuery, got %v", q, err)
		}
	}
}

func TestSearch(t *testing.T) {
	e := trained(t, mixedCorpus())

	got, err := e.Search("RACING", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected name-only match, got %d", len(got))
	}
	got, _ = e.Search("kings", 10)
	if len(got) != 1 || got[0].ID != 13 {
		t.Errorf("expected Drift Kings, got %+v", got)
	}
	if _, err := e.Search(" ", 10); !errors.Is(err, domain.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestEvaluate(t *testing.T) {
	e := trained(t, mixedCorpus())

	ev, err := e.Evaluate([]game.Game{{ID: 10}, {ID: 12}, {ID: 404}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ev.Samples != 3 || ev.Covered != 2 {
		t.Errorf("expected 2 of 3 covered, got %+v", ev)
	}
	if math.Abs(ev.Coverage-2.0/3.0) > 1e-12 {
		t.Errorf("expected coverage 2/3, got %v", ev.Coverage)
	}
}

func TestSnapshotRestore(t *testing.T) {
	src := trained(t, mixedCorpus())
	snap, err := src.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	dst := New(DefaultConfig(), nil)
	if err := dst.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	want, _ := src.RecommendByText("jumping coins", 3)
	got, err := dst.RecommendByText("jumping coins", 3)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	for i := range want {
		if want[i].GameID() != got[i].GameID() || want[i].Score() != got[i].Score() {
			t.Errorf("result %d differs: %d/%v vs %d/%v", i,
				want[i].GameID(), want[i].Score(), got[i].GameID(), got[i].Score())
		}
	}
	if err := dst.Restore(snap); !errors.Is(err, domain.ErrAlreadyTrained) {
		t.Errorf("expected ErrAlreadyTrained, got %v", err)
	}
}

func TestRestore_RejectsBadShape(t *testing.T) {
	src := trained(t, mixedCorpus())
	snap, _ := src.Snapshot()
	snap.Similarity = snap.Similarity[:len(snap.Similarity)-1]

	if err := New(DefaultConfig(), nil).Restore(snap); err == nil {
		t.Fatal("expected error for truncated similarity matrix")
	}
}

func TestConcurrentQueries(t *testing.T) {
	e := trained(t, mixedCorpus())

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := e.RecommendByID(10, 3); err != nil {
				errs <- err
			}
		}()
		go func(i int) {
			defer wg.Done()
			if _, err := e.RecommendByText(fmt.Sprintf("racing %d", i), 3); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent query: %v", err)
	}
}

func TestTop_TiesKeepCorpusOrder(t *testing.T) {
	m := &model{games: []game.Game{{ID: 9}, {ID: 3}, {ID: 5}, {ID: 7}}}
	cands := []candidate{{idx: 0, score: 0.5}, {idx: 1, score: 0.5}, {idx: 2, score: 0.9}, {idx: 3, score: 0.5}}

	recs := m.top(cands, 4)

	want := []int64{5, 9, 3, 7}
	for i, id := range want {
		if recs[i].GameID() != id {
			t.Fatalf("rank %d: expected game %d, got %d", i, id, recs[i].GameID())
		}
	}
}

func TestRecommendByID_TiesKeepCorpusOrder(t *testing.T) {
	clone := func(id int64) game.Game {
		return game.Game{ID: id, Name: "Clone", Summary: "platformer with coins", Genres: []string{"Platform"}}
	}
	corpus := []game.Game{
		clone(9),
		clone(3),
		{ID: 1, Name: "Other", Summary: "racing with coins", Genres: []string{"Racing"}},
		clone(7),
	}
	e := trained(t, corpus)

	recs, err := e.RecommendByID(1, 3)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	want := []int64{9, 3, 7}
	for i, id := range want {
		if recs[i].GameID() != id {
			t.Errorf("rank %d: expected game %d, got %d", i, id, recs[i].GameID())
		}
	}
	if recs[0].Score() != recs[1].Score() || recs[1].Score() != recs[2].Score() {
		t.Errorf("expected equal scores, got %v %v %v", recs[0].Score(), recs[1].Score(), recs[2].Score())
	}
}
