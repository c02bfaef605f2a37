// Package features maps game records into the shared numeric feature space.
package features

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamerec/internal/domain"
	"github.com/kailas-cloud/gamerec/internal/domain/game"
	"github.com/kailas-cloud/gamerec/internal/matrix"
)

// Config configures the extractor.
type Config struct {
	Summary TFIDFConfig `yaml:"summary" json:"summary"`
	Name    TFIDFConfig `yaml:"name" json:"name"`
	// StandardizeCategorical z-scores the label codes with fit-time statistics.
	StandardizeCategorical bool `yaml:"standardize_categorical" json:"standardize_categorical"`
}

// DefaultConfig returns the production vectorizer settings.
func DefaultConfig() Config {
	return Config{
		Summary:                TFIDFConfig{MaxFeatures: 1000, NgramMin: 1, NgramMax: 2, MinDF: 2, MaxDF: 0.95},
		Name:                   TFIDFConfig{MaxFeatures: 500, NgramMin: 1, NgramMax: 2, MinDF: 1, MaxDF: 0.9},
		StandardizeCategorical: true,
	}
}

type categoricalField struct {
	name   string
	labels func(g *game.Game) []string
}

var categoricalFields = []categoricalField{
	{"genres", func(g *game.Game) []string { return g.Genres }},
	{"platforms", func(g *game.Game) []string { return g.Platforms }},
	{"themes", func(g *game.Game) []string { return g.Themes }},
}

// Extractor owns the text, categorical and numerical sub-transformers.
// After fit it is read-only and safe for concurrent Transform calls.
type Extractor struct {
	cfg    Config
	logger *zap.Logger

	summary  *TFIDF
	name     *TFIDF
	encoders []*LabelEncoder
	codeStd  []Scaler
	numeric  []Scaler
	fitted   bool
}

// New creates an unfitted extractor.
func New(cfg Config, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config { return e.cfg }

// Fitted reports whether FitTransform has completed.
func (e *Extractor) Fitted() bool { return e.fitted }

// FitTransform fits every sub-transformer on games and returns their feature matrix.
func (e *Extractor) FitTransform(games []game.Game) (*matrix.Dense, error) {
	if len(games) == 0 {
		return nil, fmt.Errorf("%w: no records to fit", domain.ErrFeatureExtraction)
	}

	summary := NewTFIDF(e.cfg.Summary)
	summary.Fit(summaries(games))
	name := NewTFIDF(e.cfg.Name)
	name.Fit(names(games))
	if summary.Size()+name.Size() == 0 {
		return nil, fmt.Errorf("%w: text vocabulary is empty", domain.ErrFeatureExtraction)
	}

	encoders := make([]*LabelEncoder, len(categoricalFields))
	codeStd := make([]Scaler, len(categoricalFields))
	for f, field := range categoricalFields {
		tokens := make([]string, len(games))
		for i := range games {
			tokens[i] = joinLabels(field.labels(&games[i]))
		}
		enc := &LabelEncoder{}
		enc.Fit(tokens)
		encoders[f] = enc

		codeStd[f] = Scaler{Mean: 0, Std: 1}
		if e.cfg.StandardizeCategorical {
			codes := make([]float64, len(tokens))
			present := make([]bool, len(tokens))
			for i, tok := range tokens {
				codes[i], present[i] = float64(enc.Encode(tok)), true
			}
			codeStd[f] = FitScaler(codes, present)
		}
	}

	e.summary = summary
	e.name = name
	e.encoders = encoders
	e.codeStd = codeStd
	e.numeric = fitScalers(games)
	e.fitted = true

	e.logger.Debug("feature extractor fitted",
		zap.Int("records", len(games)),
		zap.Int("summary_terms", summary.Size()),
		zap.Int("name_terms", name.Size()),
		zap.Int("features", e.FeatureCount()),
	)
	return e.transform(games)
}

// Transform maps games into the fitted feature space.
func (e *Extractor) Transform(games []game.Game) (*matrix.Dense, error) {
	if !e.fitted {
		return nil, domain.ErrNotFitted
	}
	return e.transform(games)
}

// TransformQuery maps free text into the fitted feature space. The text
// fills the text block. Categorical and numerical columns are 0, which is
// their fit-time mean once standardized, so the query adds nothing to the
// dot product outside the text block.
func (e *Extractor) TransformQuery(text string) ([]float64, error) {
	if !e.fitted {
		return nil, domain.ErrNotFitted
	}
	m, err := e.transform([]game.Game{game.Query(text)})
	if err != nil {
		return nil, err
	}
	row := m.Row(0)
	clear(row[e.summary.Size()+e.name.Size():])
	return row, nil
}

func (e *Extractor) transform(games []game.Game) (*matrix.Dense, error) {
	text, err := e.summary.Transform(summaries(games))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFeatureExtraction, err)
	}
	nameBlock, err := e.name.Transform(names(games))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFeatureExtraction, err)
	}

	cat := matrix.New(len(games), len(categoricalFields))
	for f, field := range categoricalFields {
		for i := range games {
			code := e.encoders[f].Encode(joinLabels(field.labels(&games[i])))
			cat.Set(i, f, e.codeStd[f].Scale(float64(code), true))
		}
	}

	num := matrix.New(len(games), len(numericColumns))
	for c, col := range numericColumns {
		for i := range games {
			v, ok := col.value(&games[i])
			num.Set(i, c, e.numeric[c].Scale(v, ok))
		}
	}

	out, err := matrix.HStack(text, nameBlock, cat, num)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFeatureExtraction, err)
	}
	return out, nil
}

// FeatureCount returns the number of columns produced by Transform.
func (e *Extractor) FeatureCount() int {
	if !e.fitted {
		return 0
	}
	return e.summary.Size() + e.name.Size() + len(categoricalFields) + len(numericColumns)
}

// FeatureNames returns column names in matrix order.
func (e *Extractor) FeatureNames() []string {
	if !e.fitted {
		return nil
	}
	out := make([]string, 0, e.FeatureCount())
	for _, t := range e.summary.terms {
		out = append(out, "summary:"+t)
	}
	for _, t := range e.name.terms {
		out = append(out, "name:"+t)
	}
	for _, f := range categoricalFields {
		out = append(out, f.name)
	}
	for _, c := range numericColumns {
		out = append(out, c.name)
	}
	return out
}

func summaries(games []game.Game) []string {
	out := make([]string, len(games))
	for i := range games {
		out[i] = games[i].Summary
	}
	return out
}

func names(games []game.Game) []string {
	out := make([]string, len(games))
	for i := range games {
		out[i] = games[i].Name
	}
	return out
}

// VocabularyState is the persisted form of a fitted vectorizer.
type VocabularyState struct {
	Config TFIDFConfig `json:"config"`
	Terms  []string    `json:"terms"`
	IDF    []float64   `json:"-"`
}

// CategoricalState is the persisted form of one label encoder.
type CategoricalState struct {
	Field   string   `json:"field"`
	Classes []string `json:"classes"`
	Scaler  Scaler   `json:"scaler"`
}

// NumericalState is the persisted form of one column scaler.
type NumericalState struct {
	Field  string `json:"field"`
	Scaler Scaler `json:"scaler"`
}

// State is everything needed to rebuild a fitted extractor.
type State struct {
	Config      Config             `json:"config"`
	Summary     VocabularyState    `json:"summary"`
	Name        VocabularyState    `json:"name"`
	Categorical []CategoricalState `json:"categorical"`
	Numerical   []NumericalState   `json:"numerical"`
}

// State exports the fitted sub-transformers.
func (e *Extractor) State() (State, error) {
	if !e.fitted {
		return State{}, domain.ErrNotFitted
	}
	st := State{
		Config:  e.cfg,
		Summary: VocabularyState{Config: e.summary.cfg, Terms: slices.Clone(e.summary.terms), IDF: slices.Clone(e.summary.idf)},
		Name:    VocabularyState{Config: e.name.cfg, Terms: slices.Clone(e.name.terms), IDF: slices.Clone(e.name.idf)},
	}
	for f, field := range categoricalFields {
		st.Categorical = append(st.Categorical, CategoricalState{
			Field:   field.name,
			Classes: e.encoders[f].Classes(),
			Scaler:  e.codeStd[f],
		})
	}
	for c, col := range numericColumns {
		st.Numerical = append(st.Numerical, NumericalState{Field: col.name, Scaler: e.numeric[c]})
	}
	return st, nil
}

// FromState rebuilds a fitted extractor, validating the layout.
func FromState(st State, logger *zap.Logger) (*Extractor, error) {
	if len(st.Summary.Terms) != len(st.Summary.IDF) || len(st.Name.Terms) != len(st.Name.IDF) {
		return nil, fmt.Errorf("extractor state: vocabulary and idf lengths differ")
	}
	if len(st.Categorical) != len(categoricalFields) {
		return nil, fmt.Errorf("extractor state: %d categorical fields, want %d", len(st.Categorical), len(categoricalFields))
	}
	if len(st.Numerical) != len(numericColumns) {
		return nil, fmt.Errorf("extractor state: %d numerical fields, want %d", len(st.Numerical), len(numericColumns))
	}

	e := New(st.Config, logger)
	e.summary = NewTFIDF(st.Summary.Config)
	e.summary.setVocabulary(slices.Clone(st.Summary.Terms), slices.Clone(st.Summary.IDF))
	e.name = NewTFIDF(st.Name.Config)
	e.name.setVocabulary(slices.Clone(st.Name.Terms), slices.Clone(st.Name.IDF))

	for f, field := range categoricalFields {
		cs := st.Categorical[f]
		if cs.Field != field.name {
			return nil, fmt.Errorf("extractor state: categorical field %d is %q, want %q", f, cs.Field, field.name)
		}
		if cs.Scaler.Std == 0 {
			return nil, fmt.Errorf("extractor state: zero scale for %s", cs.Field)
		}
		e.encoders = append(e.encoders, NewLabelEncoder(cs.Classes))
		e.codeStd = append(e.codeStd, cs.Scaler)
	}
	for c, col := range numericColumns {
		ns := st.Numerical[c]
		if ns.Field != col.name {
			return nil, fmt.Errorf("extractor state: numerical field %d is %q, want %q", c, ns.Field, col.name)
		}
		if ns.Scaler.Std == 0 {
			return nil, fmt.Errorf("extractor state: zero scale for %s", ns.Field)
		}
		e.numeric = append(e.numeric, ns.Scaler)
	}
	e.fitted = true
	return e, nil
}
