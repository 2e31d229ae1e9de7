package corpus

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
)

// CustomSource supplies the user-maintained part of the corpus, already in
// corpus text format. An empty string means no custom entries.
type CustomSource interface {
	Corpus() (string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for rebuild summaries and dropped segments.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
		s.indexer.Logger = l
	}
}

// WithRand sets the random source used for sampling. Tests use it to get
// reproducible samples.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) {
		s.rnd = r
	}
}

// Service is the query facade over a cached corpus index. The cache is
// rebuilt lazily after Invalidate, so custom-entry mutations become visible
// on the next query. It is safe for concurrent use.
type Service struct {
	static  string
	custom  CustomSource
	indexer Indexer
	logger  *slog.Logger

	mu    sync.RWMutex
	index *Index
	dirty bool

	randMu sync.Mutex
	rnd    *rand.Rand
}

// NewService creates a Service over the static corpus text and an optional
// custom source.
func NewService(static string, custom CustomSource, opts ...Option) *Service {
	s := &Service{
		static: static,
		custom: custom,
		dirty:  true,
	}
	for _, o := range opts {
		o(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Invalidate marks the cached index stale.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// SetStatic replaces the static corpus text and marks the index stale.
func (s *Service) SetStatic(text string) {
	s.mu.Lock()
	s.static = text
	s.dirty = true
	s.mu.Unlock()
}

// Rebuild rescans the static and custom corpus unconditionally.
func (s *Service) Rebuild() (*Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := s.static
	if s.custom != nil {
		custom, err := s.custom.Corpus()
		if err != nil {
			return nil, fmt.Errorf("read custom corpus: %w", err)
		}
		if strings.TrimSpace(custom) != "" {
			text = text + "\n" + custom
		}
	}

	idx := s.indexer.Build(text)
	s.index = idx
	s.dirty = false

	if s.logger != nil {
		s.logger.Info("corpus indexed",
			"items", len(idx.Items),
			"publishers", len(idx.Metadata.Publishers),
			"lessons", len(idx.Metadata.Lessons),
			"diagnostics", len(idx.Diagnostics))
	}
	return idx, nil
}

// Index returns the current index, rebuilding it if stale. The returned
// value is shared and must not be modified.
func (s *Service) Index() (*Index, error) {
	s.mu.RLock()
	idx, dirty := s.index, s.dirty
	s.mu.RUnlock()
	if idx != nil && !dirty {
		return idx, nil
	}
	return s.Rebuild()
}

// Metadata returns the distinct publishers, grades and lessons.
func (s *Service) Metadata() (Metadata, error) {
	idx, err := s.Index()
	if err != nil {
		return Metadata{}, err
	}
	return idx.Metadata.clone(), nil
}

// Diagnostics returns the data-quality findings of the current index.
func (s *Service) Diagnostics() ([]Diagnostic, error) {
	idx, err := s.Index()
	if err != nil {
		return nil, err
	}
	return append([]Diagnostic{}, idx.Diagnostics...), nil
}

// FetchItems returns up to count distinct items matching f, in random
// order. An empty pool yields an empty slice, not an error.
func (s *Service) FetchItems(count int, f Filters) ([]ExerciseItem, error) {
	idx, err := s.Index()
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return []ExerciseItem{}, nil
	}

	pool := make([]int, 0, len(idx.Items))
	for i, it := range idx.Items {
		if f.Match(it) {
			pool = append(pool, i)
		}
	}
	if len(pool) == 0 {
		return []ExerciseItem{}, nil
	}

	s.randMu.Lock()
	s.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	s.randMu.Unlock()

	if count > len(pool) {
		count = len(pool)
	}
	out := make([]ExerciseItem, count)
	for i := range out {
		out[i] = idx.Items[pool[i]].clone()
	}
	return out, nil
}
