package features

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/gamerec/internal/matrix"
)

// TFIDFConfig configures one TF-IDF vectorizer.
type TFIDFConfig struct {
	MaxFeatures int     `yaml:"max_features" json:"max_features"`
	NgramMin    int     `yaml:"ngram_min" json:"ngram_min"`
	NgramMax    int     `yaml:"ngram_max" json:"ngram_max"`
	MinDF       int     `yaml:"min_df" json:"min_df"`
	MaxDF       float64 `yaml:"max_df" json:"max_df"`
}

// TFIDF is a bounded-vocabulary TF-IDF vectorizer with L2-normalized rows.
type TFIDF struct {
	cfg   TFIDFConfig
	terms []string
	index map[string]int
	idf   []float64
	fit   bool
}

// NewTFIDF creates an unfitted vectorizer.
func NewTFIDF(cfg TFIDFConfig) *TFIDF {
	if cfg.NgramMin < 1 {
		cfg.NgramMin = 1
	}
	if cfg.NgramMax < cfg.NgramMin {
		cfg.NgramMax = cfg.NgramMin
	}
	if cfg.MinDF < 1 {
		cfg.MinDF = 1
	}
	if cfg.MaxDF <= 0 || cfg.MaxDF > 1 {
		cfg.MaxDF = 1
	}
	return &TFIDF{cfg: cfg}
}

// Config returns the effective configuration.
func (v *TFIDF) Config() TFIDFConfig { return v.cfg }

// Fit learns vocabulary and idf weights from docs. The vocabulary may end up
// empty; callers decide whether that is fatal.
func (v *TFIDF) Fit(docs []string) {
	n := len(docs)
	df := make(map[string]int)
	tf := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]struct{})
		for _, term := range analyze(d, v.cfg.NgramMin, v.cfg.NgramMax) {
			tf[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	minDF := min(v.cfg.MinDF, max(n, 1))
	maxDocs := math.Inf(1)
	if n >= 2 {
		maxDocs = v.cfg.MaxDF * float64(n)
	}

	terms := make([]string, 0, len(df))
	for term, c := range df {
		if c < minDF || float64(c) > maxDocs {
			continue
		}
		terms = append(terms, term)
	}

	if v.cfg.MaxFeatures > 0 && len(terms) > v.cfg.MaxFeatures {
		slices.SortFunc(terms, func(a, b string) int {
			if tf[a] != tf[b] {
				return tf[b] - tf[a]
			}
			return strings.Compare(a, b)
		})
		terms = terms[:v.cfg.MaxFeatures]
	}
	slices.Sort(terms)

	idf := make([]float64, len(terms))
	for j, term := range terms {
		idf[j] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}
	v.setVocabulary(terms, idf)
}

// Transform maps docs into the fitted vocabulary space.
func (v *TFIDF) Transform(docs []string) (*matrix.Dense, error) {
	if !v.fit {
		return nil, fmt.Errorf("tfidf: transform before fit")
	}
	out := matrix.New(len(docs), len(v.terms))
	if len(v.terms) == 0 {
		return out, nil
	}
	for i, d := range docs {
		row := out.Row(i)
		for _, term := range analyze(d, v.cfg.NgramMin, v.cfg.NgramMax) {
			if j, ok := v.index[term]; ok {
				row[j]++
			}
		}
		for j := range row {
			row[j] *= v.idf[j]
		}
		if norm := matrix.Norm(row); norm > 0 {
			for j := range row {
				row[j] /= norm
			}
		}
	}
	return out, nil
}

// Size returns the vocabulary size.
func (v *TFIDF) Size() int { return len(v.terms) }

// Terms returns the vocabulary in column order.
func (v *TFIDF) Terms() []string { return slices.Clone(v.terms) }

func (v *TFIDF) setVocabulary(terms []string, idf []float64) {
	v.terms = terms
	v.idf = idf
	v.index = make(map[string]int, len(terms))
	for j, t := range terms {
		v.index[t] = j
	}
	v.fit = true
}
