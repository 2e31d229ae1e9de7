// Package custom manages user-entered vocabulary entries. Entries are kept as
// one delimiter-joined string in a key-value store and exposed to the corpus
// indexer as a synthetic "custom" section.
package custom

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/japaniel/zhuyin/pkg/corpus"
	"github.com/japaniel/zhuyin/pkg/zhuyin"
)

// DefaultKey is the storage key of the entry list.
const DefaultKey = "zhuyin_custom_vocab_v1"

// header wraps stored entries so the corpus indexer files them under the
// custom publisher, grade and lesson.
const header = "【" + corpus.CustomPublisher + " (Custom)】\n" +
	corpus.CustomGrade + " (Custom)\n" +
	"• " + corpus.CustomLesson + ": "

var (
	ErrIndexOutOfRange = errors.New("custom entry index out of range")
	ErrInvalidEntry    = errors.New("invalid custom entry")
)

// KV is the persistent store holding the entry list. Reads and writes are
// whole-value. Get returns "" for a missing key, and deleting a missing key
// is not an error.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithNormalizer replaces HeuristicNormalizer.
func WithNormalizer(n Normalizer) Option {
	return func(s *Store) { s.normalizer = n }
}

// Store reads and rewrites the custom entry list. Every mutation rewrites
// the whole list and then runs the OnChange callbacks.
type Store struct {
	kv         KV
	key        string
	normalizer Normalizer

	mu        sync.Mutex
	callbacks []func()
}

// NewStore creates a Store backed by kv.
func NewStore(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:         kv,
		key:        DefaultKey,
		normalizer: HeuristicNormalizer{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnChange registers fn to run after every successful mutation.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// Items returns the stored entries in order.
func (s *Store) Items() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Corpus returns the entries wrapped in corpus text format, or "" when there
// are none. It implements corpus.CustomSource.
func (s *Store) Corpus() (string, error) {
	s.mu.Lock()
	raw, err := s.kv.Get(s.key)
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("custom: read %s: %w", s.key, err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return header + raw, nil
}

// Normalize applies the store's normalizer to one entry.
func (s *Store) Normalize(entry string) string {
	return s.normalizer.Normalize(entry)
}

// SaveFromText replaces the stored list with the entries found in raw.
// It returns the number of entries saved.
func (s *Store) SaveFromText(raw string) (int, error) {
	entries := s.normalizeAll(SplitEntries(raw))
	if err := s.mutate(func([]string) ([]string, error) { return entries, nil }); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// AppendText adds the entries found in raw after the stored ones.
func (s *Store) AppendText(raw string) (int, error) {
	entries := s.normalizeAll(SplitEntries(raw))
	if len(entries) == 0 {
		return 0, nil
	}
	err := s.mutate(func(cur []string) ([]string, error) {
		return append(cur, entries...), nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Add appends one entry built from its parts as pre(target)annotationpost.
func (s *Store) Add(pre, target, annotation, post string) error {
	entry, err := BuildEntry(pre, target, annotation, post)
	if err != nil {
		return err
	}
	return s.mutate(func(cur []string) ([]string, error) {
		return append(cur, entry), nil
	})
}

// Remove deletes the entry at index.
func (s *Store) Remove(index int) error {
	return s.mutate(func(cur []string) ([]string, error) {
		if index < 0 || index >= len(cur) {
			return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(cur))
		}
		return append(cur[:index], cur[index+1:]...), nil
	})
}

// Clear removes every entry and deletes the storage key.
func (s *Store) Clear() error {
	return s.mutate(func([]string) ([]string, error) { return nil, nil })
}

// BuildEntry assembles a canonical entry from explicit parts.
func BuildEntry(pre, target, annotation, post string) (string, error) {
	pre, target = strings.TrimSpace(pre), strings.TrimSpace(target)
	annotation, post = strings.TrimSpace(annotation), strings.TrimSpace(post)

	for _, part := range []string{pre, target, annotation, post} {
		if strings.ContainsAny(part, corpus.ItemDelimiter+"()（）\n") {
			return "", fmt.Errorf("%w: %q contains a reserved character", ErrInvalidEntry, part)
		}
	}
	d := zhuyin.Derive(annotation)
	if !zhuyin.HasSound(annotation) || len(d.Skipped) > 0 {
		return "", fmt.Errorf("%w: annotation %q is not a Zhuyin syllable", ErrInvalidEntry, annotation)
	}
	if r, _ := utf8.DecodeRuneInString(post); zhuyin.IsSymbol(r) {
		return "", fmt.Errorf("%w: post-context %q would merge into the annotation", ErrInvalidEntry, post)
	}
	return pre + "(" + target + ")" + annotation + post, nil
}

func (s *Store) normalizeAll(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if n := s.normalizer.Normalize(e); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// read assumes s.mu is held.
func (s *Store) read() ([]string, error) {
	raw, err := s.kv.Get(s.key)
	if err != nil {
		return nil, fmt.Errorf("custom: read %s: %w", s.key, err)
	}
	var out []string
	for _, e := range strings.Split(raw, corpus.ItemDelimiter) {
		if strings.TrimSpace(e) != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) mutate(fn func([]string) ([]string, error)) error {
	s.mu.Lock()
	cur, err := s.read()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	next, err := fn(cur)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if len(next) == 0 {
		err = s.kv.Delete(s.key)
	} else {
		err = s.kv.Set(s.key, strings.Join(next, corpus.ItemDelimiter))
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("custom: write %s: %w", s.key, err)
	}
	callbacks := append([]func(){}, s.callbacks...)
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	return nil
}
