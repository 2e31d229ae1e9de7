// Package htmlimport turns saved lesson pages with Zhuyin ruby markup into
// custom entries.
package htmlimport

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-shiori/go-readability"

	"github.com/japaniel/zhuyin/pkg/zhuyin"
)

// DefaultWindow is the number of context runes kept on each side of a
// harvested target.
const DefaultWindow = 2

// Article is the readable part of a page.
type Article struct {
	Title string
	Text  string
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRuby = regexp.MustCompile(`(?si)<ruby\b[^>]*>(.*?)</ruby>`)
	reRT   = regexp.MustCompile(`(?si)<rt\b[^>]*>(.*?)</rt>`)
	reRP   = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
	reTag  = regexp.MustCompile(`<[^>]*>`)
)

// ConvertRuby rewrites ruby markup into inline annotations, so
// "<ruby>狗<rp>(</rp><rt>ㄍㄡˇ</rt><rp>)</rp></ruby>" becomes "狗(ㄍㄡˇ)".
// Readability would otherwise flatten base and ruby text into "狗ㄍㄡˇ".
// Grouped ruby pairs each base run with the <rt> after it, so
// "<ruby>小<rt>ㄒㄧㄠˇ</rt>狗<rt>ㄍㄡˇ</rt></ruby>" becomes "小(ㄒㄧㄠˇ)狗(ㄍㄡˇ)".
func ConvertRuby(content []byte) []byte {
	cleaned := reRP.ReplaceAll(content, nil)
	return reRuby.ReplaceAllFunc(cleaned, func(m []byte) []byte {
		return convertGroup(reRuby.FindSubmatch(m)[1])
	})
}

type rubyPair struct {
	base, ann []byte
}

func convertGroup(inner []byte) []byte {
	var pairs []rubyPair
	prev := 0
	for _, loc := range reRT.FindAllSubmatchIndex(inner, -1) {
		base := stripTags(inner[prev:loc[0]])
		ann := stripTags(inner[loc[2]:loc[3]])
		prev = loc[1]
		// an <rt> with no base of its own continues the previous reading
		if len(base) == 0 && len(pairs) > 0 {
			last := &pairs[len(pairs)-1]
			last.ann = append(last.ann, ann...)
			continue
		}
		pairs = append(pairs, rubyPair{base: base, ann: ann})
	}

	if len(pairs) <= 1 {
		p := rubyPair{base: stripTags(reRT.ReplaceAll(inner, nil))}
		if len(pairs) == 1 {
			p.ann = pairs[0].ann
		}
		return appendPair(nil, p)
	}
	var out []byte
	for _, p := range pairs {
		out = appendPair(out, p)
	}
	return append(out, stripTags(inner[prev:])...)
}

func appendPair(out []byte, p rubyPair) []byte {
	out = append(out, p.base...)
	if len(p.ann) == 0 {
		return out
	}
	out = append(out, '(')
	out = append(out, p.ann...)
	return append(out, ')')
}

func stripTags(b []byte) []byte {
	return bytes.TrimSpace(reTag.ReplaceAll(b, nil))
}

// ExtractText converts ruby markup and extracts the readable article text.
// pageURL is used to resolve relative links and may be nil.
func ExtractText(r io.Reader, pageURL *url.URL) (Article, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return Article{}, fmt.Errorf("read page: %w", err)
	}
	if pageURL == nil {
		pageURL = &url.URL{Scheme: "file", Path: "/"}
	}
	article, err := readability.FromReader(bytes.NewReader(ConvertRuby(body)), pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("extract article: %w", err)
	}
	return Article{Title: strings.TrimSpace(article.Title), Text: article.TextContent}, nil
}

type annotation struct {
	glyph int // index into the plain runes
	text  string
}

// Harvest finds "字(ㄗˋ)" annotations in text and returns one canonical
// entry per annotation, "pre(字)ㄗˋpost", keeping up to window context runes
// on each side. Context stops at punctuation and whitespace, and the other
// annotations of the sentence are dropped from it. Duplicates are removed.
func Harvest(text string, window int) []string {
	if window < 0 {
		window = 0
	}
	var out []string
	seen := map[string]bool{}
	for _, s := range splitSentences(text) {
		plain, anns := scanSentence([]rune(s))
		for _, a := range anns {
			lo := a.glyph
			for lo > 0 && a.glyph-lo < window && isContextRune(plain[lo-1]) {
				lo--
			}
			hi := a.glyph + 1
			for hi < len(plain) && hi-a.glyph-1 < window && isContextRune(plain[hi]) {
				hi++
			}
			entry := string(plain[lo:a.glyph]) + "(" + string(plain[a.glyph]) + ")" +
				a.text + string(plain[a.glyph+1:hi])
			if !seen[entry] {
				seen[entry] = true
				out = append(out, entry)
			}
		}
	}
	return out
}

// scanSentence strips annotations from s and records where they were.
func scanSentence(s []rune) ([]rune, []annotation) {
	plain := make([]rune, 0, len(s))
	var anns []annotation
	for i := 0; i < len(s); i++ {
		if s[i] == '(' && len(plain) > 0 && isContextRune(plain[len(plain)-1]) {
			if end := closing(s, i+1); end > 0 {
				ann := strings.ReplaceAll(string(s[i+1:end]), " ", "")
				if isAnnotation(ann) {
					anns = append(anns, annotation{glyph: len(plain) - 1, text: ann})
					i = end
					continue
				}
			}
		}
		plain = append(plain, s[i])
	}
	return plain, anns
}

func closing(s []rune, from int) int {
	for j := from; j < len(s); j++ {
		switch s[j] {
		case ')':
			return j
		case '(':
			return -1
		}
	}
	return -1
}

func isAnnotation(s string) bool {
	sound := false
	for _, r := range s {
		if !zhuyin.IsSymbol(r) {
			return false
		}
		if !zhuyin.IsToneMark(r) {
			sound = true
		}
	}
	return sound
}

func isContextRune(r rune) bool {
	return (unicode.IsLetter(r) || unicode.IsDigit(r)) && !zhuyin.IsSymbol(r)
}

func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		// 。(3002), ！(FF01), ？(FF1F)
		if r == '。' || r == '！' || r == '？' || r == '\n' {
			if current.Len() > 0 {
				sentences = append(sentences, current.String())
			}
			current.Reset()
			continue
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}
