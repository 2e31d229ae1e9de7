package corpus

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/japaniel/zhuyin/pkg/zhuyin"
)

// ErrUnparseable is returned for segments that do not follow the annotation
// syntax. Callers skip the segment and continue.
var ErrUnparseable = errors.New("unparseable segment")

// ParseItem parses one annotated segment into an exercise item.
//
// The canonical shape is PreContext(Glyph)AnnotationPostContext, e.g.
// "(上)ㄕㄤˋ學". The glyph-first shape Glyph(Annotation)PostContext, e.g.
// "我(ㄨㄛˇ)愛", is accepted when nothing phonetic follows the closing
// bracket. Only the first bracket pair is a target; later brackets stay in
// the context text.
func ParseItem(segment, id string, tags Tags) (ExerciseItem, error) {
	text := strings.TrimSpace(segment)

	open := strings.IndexByte(text, '(')
	if open < 0 {
		return ExerciseItem{}, fmt.Errorf("%w: no bracketed target", ErrUnparseable)
	}
	end := strings.IndexByte(text[open+1:], ')')
	if end < 0 {
		return ExerciseItem{}, fmt.Errorf("%w: unclosed bracket", ErrUnparseable)
	}
	end += open + 1

	pre := strings.TrimSpace(text[:open])
	target := strings.TrimSpace(text[open+1 : end])
	rest := text[end+1:]

	runLen := phoneticRunLen(rest)
	annotation := strings.TrimSpace(rest[:runLen])
	post := rest[runLen:]

	if annotation == "" && pre != "" && isPhoneticRun(target) {
		r, size := utf8.DecodeLastRuneInString(pre)
		annotation = target
		target = string(r)
		pre = strings.TrimSpace(pre[:len(pre)-size])
		post = rest
	}
	post = strings.TrimSpace(post)

	if annotation == "" {
		return ExerciseItem{}, fmt.Errorf("%w: missing annotation", ErrUnparseable)
	}
	if !zhuyin.HasSound(annotation) {
		return ExerciseItem{}, fmt.Errorf("%w: annotation %q has no sound symbol", ErrUnparseable, annotation)
	}

	d := zhuyin.Derive(annotation)
	if len(d.Keys) == 0 {
		return ExerciseItem{}, fmt.Errorf("%w: annotation %q yields no keystrokes", ErrUnparseable, annotation)
	}

	glyph := target
	if glyph == "" {
		glyph = PlaceholderGlyph
	}

	units := make([]TypingUnit, 0, utf8.RuneCountInString(pre)+1+utf8.RuneCountInString(post))
	units = appendContext(units, pre)
	units = append(units, TypingUnit{
		Glyph:      glyph,
		Annotation: annotation,
		Keystrokes: d.Keys,
	})
	units = appendContext(units, post)

	return ExerciseItem{
		ID:           id,
		SourceText:   segment,
		Units:        units,
		Publisher:    tags.Publisher,
		Grade:        tags.Grade,
		Lesson:       tags.Lesson,
		StraySymbols: straySymbols(pre, post),
	}, nil
}

func appendContext(units []TypingUnit, s string) []TypingUnit {
	for _, r := range s {
		units = append(units, TypingUnit{Glyph: string(r), IsContext: true})
	}
	return units
}

// phoneticRunLen returns the byte length of the longest prefix of s made of
// Zhuyin symbols and whitespace.
func phoneticRunLen(s string) int {
	for i, r := range s {
		if !zhuyin.IsSymbol(r) && !unicode.IsSpace(r) {
			return i
		}
	}
	return len(s)
}

// isPhoneticRun reports whether s consists only of symbols and whitespace
// and carries at least one sound symbol.
func isPhoneticRun(s string) bool {
	return s != "" && phoneticRunLen(s) == len(s) && zhuyin.HasSound(s)
}

func straySymbols(parts ...string) []rune {
	var out []rune
	for _, p := range parts {
		for _, r := range p {
			if zhuyin.IsSymbol(r) {
				out = append(out, r)
			}
		}
	}
	return out
}
