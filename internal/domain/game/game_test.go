package game

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/gamerec/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestNormalize_CollapsesLabels(t *testing.T) {
	g := Game{
		ID:      1,
		Name:    "  Celeste ",
		Summary: " climb a mountain ",
		Genres:  []string{"Platform", "Indie", "Platform", " ", "Indie"},
	}.Normalize()

	if g.Name != "Celeste" {
		t.Errorf("Name = %q", g.Name)
	}
	if g.Summary != "climb a mountain" {
		t.Errorf("Summary = %q", g.Summary)
	}
	want := []string{"Indie", "Platform"}
	if len(g.Genres) != len(want) {
		t.Fatalf("Genres = %v, want %v", g.Genres, want)
	}
	for i := range want {
		if g.Genres[i] != want[i] {
			t.Errorf("Genres[%d] = %q, want %q", i, g.Genres[i], want[i])
		}
	}
	if g.Platforms != nil {
		t.Errorf("Platforms = %v, want nil", g.Platforms)
	}
}

func TestTrainable(t *testing.T) {
	tests := []struct {
		name string
		game Game
		want bool
	}{
		{"summary and genre", Game{Summary: "jump", Genres: []string{"Platform"}}, true},
		{"no summary", Game{Genres: []string{"Platform"}}, false},
		{"whitespace summary", Game{Summary: "   ", Genres: []string{"Platform"}}, false},
		{"no genres", Game{Summary: "jump"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.game.Trainable(); got != tt.want {
				t.Errorf("Trainable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterTrainable_KeepsOrder(t *testing.T) {
	games := []Game{
		{ID: 1, Summary: "a", Genres: []string{"X"}},
		{ID: 2},
		{ID: 3, Summary: "c", Genres: []string{"Y"}},
	}
	got := FilterTrainable(games)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("FilterTrainable = %+v", got)
	}
}

func TestSummaryLength_CountsRunes(t *testing.T) {
	g := Game{Summary: "Pokémon"}
	if g.SummaryLength() != 7 {
		t.Errorf("SummaryLength() = %d, want 7", g.SummaryLength())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		game    Game
		wantErr bool
	}{
		{"valid", Game{ID: 1, Name: "Doom", Rating: ptr(88.5), ReleaseYear: ptr(1993)}, false},
		{"valid without optionals", Game{ID: 0, Name: "Doom"}, false},
		{"negative id", Game{ID: -1, Name: "Doom"}, true},
		{"missing name", Game{ID: 1}, true},
		{"rating above range", Game{ID: 1, Name: "Doom", Rating: ptr(101.0)}, true},
		{"negative rating count", Game{ID: 1, Name: "Doom", RatingCount: -3}, true},
		{"implausible year", Game{ID: 1, Name: "Doom", ReleaseYear: ptr(1200)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.game.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidGame) {
				t.Errorf("expected ErrInvalidGame, got %v", err)
			}
		})
	}
}

func TestQuery(t *testing.T) {
	q := Query("space exploration")
	if q.Summary != "space exploration" {
		t.Errorf("Summary = %q", q.Summary)
	}
	if q.Trainable() {
		t.Error("query record must not be trainable")
	}
	if q.Rating != nil || q.ReleaseYear != nil {
		t.Error("query record must not carry rating or release year")
	}
}
