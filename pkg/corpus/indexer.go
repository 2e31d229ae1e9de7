package corpus

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var gradeLabels = []string{"一年級", "二年級", "三年級", "四年級", "五年級", "六年級", CustomGrade}

const (
	bullet        = "•"
	ignorePrefix  = "_"
	publisherOpen = "【"
	publisherEnd  = "】"
)

// Indexer scans corpus text into an Index.
type Indexer struct {
	// Logger receives dropped-segment details at debug level. nil means no logging.
	Logger *slog.Logger
}

// BuildIndex scans text with a default Indexer.
func BuildIndex(text string) *Index {
	var ix Indexer
	return ix.Build(text)
}

// tagSet keeps distinct values in first-seen order.
type tagSet struct {
	seen  map[string]bool
	order []string
}

func (s *tagSet) add(v string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.order = append(s.order, v)
}

// Build scans text line by line. Section state is local to the call.
func (ix *Indexer) Build(text string) *Index {
	var (
		idx        Index
		publishers tagSet
		grades     tagSet
		lessons    tagSet
	)
	publisher, grade := DefaultTag, DefaultTag

	for lineIdx, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ignorePrefix) {
			continue
		}

		if name, ok := parsePublisher(trimmed); ok {
			publisher = name
			publishers.add(name)
			continue
		}

		if g, ok := parseGrade(trimmed); ok {
			grade = g
			grades.add(g)
			continue
		}

		if !strings.HasPrefix(trimmed, bullet) {
			continue
		}

		lesson, body := splitItemLine(trimmed)
		lessons.add(lesson)
		if strings.TrimSpace(body) == "" {
			continue
		}

		tags := Tags{Publisher: publisher, Grade: grade, Lesson: lesson}
		for segIdx, segment := range strings.Split(body, ItemDelimiter) {
			if strings.TrimSpace(segment) == "" {
				continue
			}
			id := fmt.Sprintf("item-%d-%d", lineIdx, segIdx)
			item, err := ParseItem(segment, id, tags)
			if err != nil {
				idx.Diagnostics = append(idx.Diagnostics, Diagnostic{
					Line:    lineIdx + 1,
					Segment: segIdx,
					Kind:    DroppedSegment,
					Text:    segment,
					Detail:  err.Error(),
				})
				if ix.Logger != nil {
					ix.Logger.Debug("dropped corpus segment", "line", lineIdx+1, "segment", segIdx, "text", segment, "error", err)
				}
				continue
			}
			if len(item.StraySymbols) > 0 {
				idx.Diagnostics = append(idx.Diagnostics, Diagnostic{
					Line:    lineIdx + 1,
					Segment: segIdx,
					Kind:    StraySymbols,
					Text:    segment,
					Detail:  fmt.Sprintf("symbols %q in context text", string(item.StraySymbols)),
				})
			}
			// Defaults are only recorded once an item actually carries them.
			publishers.add(publisher)
			grades.add(grade)
			idx.Items = append(idx.Items, item)
		}
	}

	idx.Metadata = Metadata{
		Publishers: append([]string{}, publishers.order...),
		Grades:     append([]string{}, grades.order...),
		Lessons:    SortLessons(lessons.order),
	}
	return &idx
}

// parsePublisher recognizes "【康軒 (Kangxuan)】" and returns "康軒".
func parsePublisher(line string) (string, bool) {
	if !strings.HasPrefix(line, publisherOpen) {
		return "", false
	}
	inner, _, found := strings.Cut(line[len(publisherOpen):], publisherEnd)
	if !found {
		return "", false
	}
	if i := strings.IndexFunc(inner, func(r rune) bool {
		return unicode.IsSpace(r) || r == '(' || r == '（'
	}); i >= 0 {
		inner = inner[:i]
	}
	name := strings.TrimSpace(inner)
	if name == "" {
		name = DefaultTag
	}
	return name, true
}

func parseGrade(line string) (string, bool) {
	for _, g := range gradeLabels {
		if strings.HasPrefix(line, g) {
			return g, true
		}
	}
	return "", false
}

// splitItemLine splits "• 第 1 課: a、b" into the lesson label and body.
func splitItemLine(line string) (lesson, body string) {
	rest := strings.TrimPrefix(line, bullet)
	if i := strings.IndexAny(rest, ":："); i >= 0 {
		_, size := utf8.DecodeRuneInString(rest[i:])
		lesson, body = rest[:i], rest[i+size:]
	} else {
		lesson = rest
	}
	lesson = strings.TrimSpace(lesson)
	if lesson == "" {
		lesson = DefaultTag
	}
	return lesson, body
}

// SortLessons orders lesson labels by the first number they contain, so
// "第 2 課" comes before "第 10 課". CustomLesson is always first. Labels
// without a number sort as 0; ties keep their input order.
func SortLessons(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i] == CustomLesson, out[j] == CustomLesson
		if ci != cj {
			return ci
		}
		return lessonNumber(out[i]) < lessonNumber(out[j])
	})
	return out
}

func lessonNumber(label string) int {
	start := strings.IndexFunc(label, isASCIIDigit)
	if start < 0 {
		return 0
	}
	end := strings.IndexFunc(label[start:], func(r rune) bool { return !isASCIIDigit(r) })
	if end < 0 {
		end = len(label) - start
	}
	n, err := strconv.Atoi(label[start : start+end])
	if err != nil {
		return 0
	}
	return n
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }
