// Package game defines the game record consumed by the recommendation engine.
package game

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/gamerec/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Game is one item of content. Records are immutable once handed to the engine.
type Game struct {
	ID          int64    `json:"id" validate:"gte=0"`
	Name        string   `json:"name" validate:"required"`
	Summary     string   `json:"summary"`
	Genres      []string `json:"genre_names"`
	Platforms   []string `json:"platform_names"`
	Themes      []string `json:"theme_names"`
	Rating      *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=100"`
	RatingCount int      `json:"rating_count" validate:"gte=0"`
	ReleaseYear *int     `json:"release_year,omitempty" validate:"omitempty,gte=1940,lte=2100"`
}

// Query builds the synthetic record used to score free text against the corpus.
// It carries no id, no categories and no rating or release year. Only its
// text is meaningful; the extractor neutralizes every other column.
func Query(text string) Game {
	return Game{ID: -1, Summary: text}
}

// Normalize trims text fields and collapses label sets: empty labels are
// dropped, duplicates removed, the remainder sorted.
func (g Game) Normalize() Game {
	g.Name = strings.TrimSpace(g.Name)
	g.Summary = strings.TrimSpace(g.Summary)
	g.Genres = normalizeLabels(g.Genres)
	g.Platforms = normalizeLabels(g.Platforms)
	g.Themes = normalizeLabels(g.Themes)
	return g
}

// Validate checks the record once at the ingestion boundary.
func (g *Game) Validate() error {
	if err := validatorInstance().Struct(g); err != nil {
		return fmt.Errorf("%w: id=%d: %w", domain.ErrInvalidGame, g.ID, err)
	}
	return nil
}

// Trainable reports whether the record has a summary and at least one genre.
func (g *Game) Trainable() bool {
	return strings.TrimSpace(g.Summary) != "" && len(g.Genres) > 0
}

// SummaryLength is the character count of the summary.
func (g *Game) SummaryLength() int {
	return utf8.RuneCountInString(g.Summary)
}

// HasRating reports whether the record carries a rating.
func (g *Game) HasRating() bool { return g.Rating != nil }

// FilterTrainable returns the trainable records in input order.
func FilterTrainable(games []Game) []Game {
	out := make([]Game, 0, len(games))
	for i := range games {
		if games[i].Trainable() {
			out = append(out, games[i])
		}
	}
	return out
}

func normalizeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
