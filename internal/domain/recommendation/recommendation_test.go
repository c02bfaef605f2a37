package recommendation

import (
	"testing"

	"github.com/kailas-cloud/gamerec/internal/domain/game"
)

func TestNew(t *testing.T) {
	g := game.Game{ID: 7, Name: "Hades", Genres: []string{"Roguelike"}}
	r := New(g, 0.42, 1)

	if r.GameID() != 7 {
		t.Errorf("GameID() = %d", r.GameID())
	}
	if r.Score() != 0.42 {
		t.Errorf("Score() = %f", r.Score())
	}
	if r.Rank() != 1 {
		t.Errorf("Rank() = %d", r.Rank())
	}
	if r.Game().Name != "Hades" {
		t.Errorf("Game().Name = %q", r.Game().Name)
	}
}
