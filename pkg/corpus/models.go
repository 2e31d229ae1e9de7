package corpus

import (
	"slices"

	"github.com/japaniel/zhuyin/pkg/zhuyin"
)

// Section labels used by the corpus format.
const (
	// DefaultTag labels items that appear before any publisher or grade header.
	DefaultTag = "通用"

	CustomPublisher = "自訂題庫"
	CustomGrade     = "自訂等級"
	CustomLesson    = "我的練習"

	// PlaceholderGlyph is displayed when a target bracket is empty.
	PlaceholderGlyph = "( )"

	// ItemDelimiter separates segments on an item line and entries in the
	// custom store.
	ItemDelimiter = "、"
)

// TypingUnit is one displayed glyph of an exercise.
type TypingUnit struct {
	Glyph      string       `json:"glyph" yaml:"glyph"`
	Annotation string       `json:"annotation,omitempty" yaml:"annotation,omitempty"`
	Keystrokes []zhuyin.Key `json:"keystrokes,omitempty" yaml:"keystrokes,omitempty"`
	// IsContext units are display-only and never matched against input.
	IsContext bool `json:"is_context" yaml:"is_context"`
}

// ExerciseItem is one vocabulary exercise built from a corpus segment.
type ExerciseItem struct {
	ID         string       `json:"id" yaml:"id"`
	SourceText string       `json:"source_text" yaml:"source_text"`
	Units      []TypingUnit `json:"units" yaml:"units"`
	Publisher  string       `json:"publisher" yaml:"publisher"`
	Grade      string       `json:"grade" yaml:"grade"`
	Lesson     string       `json:"lesson" yaml:"lesson"`
	// StraySymbols are Zhuyin symbols that ended up in context text, which
	// usually means a malformed annotation.
	StraySymbols []rune `json:"-" yaml:"-"`
}

// Text concatenates the glyphs of all units.
func (it ExerciseItem) Text() string {
	var n int
	for _, u := range it.Units {
		n += len(u.Glyph)
	}
	b := make([]byte, 0, n)
	for _, u := range it.Units {
		b = append(b, u.Glyph...)
	}
	return string(b)
}

// Targets returns the units that must be typed.
func (it ExerciseItem) Targets() []TypingUnit {
	var out []TypingUnit
	for _, u := range it.Units {
		if !u.IsContext {
			out = append(out, u)
		}
	}
	return out
}

func (it ExerciseItem) clone() ExerciseItem {
	c := it
	c.Units = make([]TypingUnit, len(it.Units))
	for i, u := range it.Units {
		u.Keystrokes = slices.Clone(u.Keystrokes)
		c.Units[i] = u
	}
	c.StraySymbols = slices.Clone(it.StraySymbols)
	return c
}

// Tags are the section labels an item inherits.
type Tags struct {
	Publisher string
	Grade     string
	Lesson    string
}

// Metadata lists the distinct section labels of an index in display order.
type Metadata struct {
	Publishers []string `json:"publishers" yaml:"publishers"`
	Grades     []string `json:"grades" yaml:"grades"`
	Lessons    []string `json:"lessons" yaml:"lessons"`
}

func (m Metadata) clone() Metadata {
	return Metadata{
		Publishers: slices.Clone(m.Publishers),
		Grades:     slices.Clone(m.Grades),
		Lessons:    slices.Clone(m.Lessons),
	}
}

// Filters restricts a query. An empty slice places no restriction on that
// dimension; non-empty dimensions are combined with AND.
type Filters struct {
	Publishers []string `json:"publishers,omitempty" yaml:"publishers,omitempty"`
	Grades     []string `json:"grades,omitempty" yaml:"grades,omitempty"`
	Lessons    []string `json:"lessons,omitempty" yaml:"lessons,omitempty"`
}

// Match reports whether it satisfies every dimension of f.
func (f Filters) Match(it ExerciseItem) bool {
	return matchTag(f.Publishers, it.Publisher) &&
		matchTag(f.Grades, it.Grade) &&
		matchTag(f.Lessons, it.Lesson)
}

func matchTag(allowed []string, tag string) bool {
	if len(allowed) == 0 {
		return true
	}
	if tag == "" {
		return false
	}
	return slices.Contains(allowed, tag)
}

// DiagnosticKind classifies a data-quality finding.
type DiagnosticKind string

const (
	// DroppedSegment marks a segment the parser rejected.
	DroppedSegment DiagnosticKind = "dropped_segment"
	// StraySymbols marks an item whose context text contains Zhuyin symbols.
	StraySymbols DiagnosticKind = "stray_symbols"
)

// Diagnostic is a corpus-authoring finding. Diagnostics never stop indexing.
type Diagnostic struct {
	Line    int            `json:"line" yaml:"line"`
	Segment int            `json:"segment" yaml:"segment"`
	Kind    DiagnosticKind `json:"kind" yaml:"kind"`
	Text    string         `json:"text" yaml:"text"`
	Detail  string         `json:"detail" yaml:"detail"`
}

// Index is the result of scanning a corpus.
type Index struct {
	Items       []ExerciseItem
	Metadata    Metadata
	Diagnostics []Diagnostic
}
