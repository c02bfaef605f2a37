package features

import (
	"slices"
	"strings"
)

// UnknownCode is the code assigned to label sets not seen during fit.
const UnknownCode = 0

const labelSeparator = "|"

// joinLabels turns a label set into the single token that gets encoded.
// Labels are sorted so that order never changes the token.
func joinLabels(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	s := slices.Clone(labels)
	slices.Sort(s)
	return strings.Join(slices.Compact(s), labelSeparator)
}

// LabelEncoder maps joined label sets to integer codes 1..K in lexical order
// of the classes seen at fit time.
type LabelEncoder struct {
	classes []string
	codes   map[string]int
}

// NewLabelEncoder builds an encoder from already known classes.
func NewLabelEncoder(classes []string) *LabelEncoder {
	e := &LabelEncoder{}
	e.setClasses(slices.Clone(classes))
	return e
}

// Fit learns the classes of values.
func (e *LabelEncoder) Fit(values []string) {
	classes := slices.Clone(values)
	slices.Sort(classes)
	e.setClasses(slices.Compact(classes))
}

// Encode returns the code of value, or UnknownCode.
func (e *LabelEncoder) Encode(value string) int {
	if c, ok := e.codes[value]; ok {
		return c
	}
	return UnknownCode
}

// Classes returns the fitted classes in code order.
func (e *LabelEncoder) Classes() []string { return slices.Clone(e.classes) }

func (e *LabelEncoder) setClasses(classes []string) {
	e.classes = classes
	e.codes = make(map[string]int, len(classes))
	for i, c := range classes {
		e.codes[c] = i + 1
	}
}
