package custom

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/japaniel/zhuyin/pkg/zhuyin"
)

// Normalizer rewrites a user-entered entry into the canonical
// "(Glyph)AnnotationRest" shape. Implementations are best effort: input they
// cannot recognize is returned trimmed, and the corpus parser decides later
// whether it is usable.
type Normalizer interface {
	Normalize(entry string) string
}

// HeuristicNormalizer looks for the first "Glyph(Annotation)" pattern, a
// single non-space character followed by a bracketed Zhuyin run, and moves
// the brackets onto the glyph:
//
//	紅(ㄏㄨㄥˊ)色  ->  (紅)ㄏㄨㄥˊ色
type HeuristicNormalizer struct{}

// Normalize implements Normalizer.
func (HeuristicNormalizer) Normalize(entry string) string {
	s := strings.TrimSpace(foldParens(entry))
	if s == "" || strings.HasPrefix(s, "(") {
		return s
	}

	prevStart, prev := -1, rune(0)
	for i, r := range s {
		if r == '(' && prevStart >= 0 && prev != '(' && !unicode.IsSpace(prev) {
			if end := strings.IndexByte(s[i+1:], ')'); end >= 0 {
				inner := s[i+1 : i+1+end]
				rest := s[i+1+end+1:]
				if isAnnotation(inner) && !startsWithSound(rest) {
					return s[:prevStart] + "(" + string(prev) + ")" + inner + rest
				}
			}
		}
		prevStart, prev = i, r
	}
	return s
}

// isAnnotation reports whether s is made of Zhuyin symbols and spaces with
// at least one symbol.
func isAnnotation(s string) bool {
	seen := false
	for _, r := range s {
		switch {
		case zhuyin.IsSymbol(r):
			seen = true
		case r == ' ':
		default:
			return false
		}
	}
	return seen
}

// startsWithSound guards entries that are already canonical with a Zhuyin
// glyph as the target, e.g. "注音(ㄅ)ㄅㄛ".
func startsWithSound(s string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimLeft(s, " "))
	return zhuyin.IsSymbol(r) && !zhuyin.IsToneMark(r)
}

// foldParens maps full-width parentheses to ASCII ones. Other full-width
// forms are left alone so context text is not altered.
func foldParens(s string) string {
	return strings.Map(func(r rune) rune {
		p := width.LookupRune(r)
		if p.Kind() != width.EastAsianFullwidth {
			return r
		}
		if n := p.Narrow(); n == '(' || n == ')' {
			return n
		}
		return r
	}, s)
}

// SplitEntries splits a block of pasted text on newlines, half- and
// full-width semicolons and the ideographic comma, dropping empty pieces.
func SplitEntries(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case '\n', '\r', ';', '；', '、':
			return true
		}
		return false
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
