package words

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTimeout bounds one generation call.
const DefaultTimeout = 25 * time.Second

// Generator produces raw text for a generation prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service supplies one pair per call, preferring cached or freshly generated
// pairs for the theme and falling back to the fixed pool on any failure.
type Service struct {
	cache   Cache
	gen     Generator
	timeout time.Duration
	logf    func(format string, args ...any)

	group singleflight.Group
}

type Option func(*Service)

// WithCache replaces the default in-memory cache.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithGenerator sets the generation backend. Without one every request is
// served from the fallback pool.
func WithGenerator(g Generator) Option {
	return func(s *Service) {
		s.gen = g
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(logf func(format string, args ...any)) Option {
	return func(s *Service) {
		if logf != nil {
			s.logf = logf
		}
	}
}

func NewService(opts ...Option) *Service {
	s := &Service{
		cache:   NewMemoryCache(),
		timeout: DefaultTimeout,
		logf:    func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supply returns one valid pair for theme. Only an invalid theme produces an
// error; every generation problem degrades to a fallback pair.
func (s *Service) Supply(ctx context.Context, theme string) (Pair, error) {
	theme, err := NormalizeTheme(theme)
	if err != nil {
		return Pair{}, err
	}

	if p, ok := s.pop(ctx, theme); ok {
		return p, nil
	}

	if s.gen == nil {
		s.logf("WORDS: No generator configured, using fallback for %q", theme)
		return Fallback(), nil
	}

	_, err, shared := s.group.Do(theme, func() (any, error) {
		return nil, s.refill(ctx, theme)
	})
	if err != nil {
		s.logf("WORDS: Generation for %q failed, using fallback: %v", theme, err)
		return Fallback(), nil
	}

	if p, ok := s.pop(ctx, theme); ok {
		return p, nil
	}

	s.logf("WORDS: Batch for %q drained by concurrent requests (shared=%t), using fallback", theme, shared)
	return Fallback(), nil
}

func (s *Service) pop(ctx context.Context, theme string) (Pair, bool) {
	p, ok, err := s.cache.Pop(ctx, theme)
	if err != nil {
		s.logf("WORDS: Cache read for %q failed: %v", theme, err)
		return Pair{}, false
	}
	return p, ok
}

func (s *Service) refill(ctx context.Context, theme string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}

	started := time.Now()
	done := make(chan result, 1)
	go func() {
		text, err := s.gen.Generate(ctx, Prompt(theme))
		done <- result{text: text, err: err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		return fmt.Errorf("generate: %w", ctx.Err())
	}
	if r.err != nil {
		return fmt.Errorf("generate: %w", r.err)
	}

	batch, err := ParseBatch(r.text)
	if err != nil {
		return err
	}

	if err := s.cache.Store(ctx, theme, batch); err != nil {
		return fmt.Errorf("store batch: %w", err)
	}

	s.logf("WORDS: Generated %d pairs for %q in %s", len(batch), theme, time.Since(started).Round(time.Millisecond))

	return nil
}
