package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"field-agent/internal/metrics"
)

// FetchState is the lifecycle of a reference list fetcher
type FetchState int

const (
	StateIdle FetchState = iota
	StateFetching
	StateSucceeded
	StateFailed
)

func (s FetchState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Source says where a list came from
type Source string

const (
	SourceRemote Source = "remote"
	SourceCache  Source = "cache"
	SourceSeed   Source = "seed"
	SourceNone   Source = "none"
)

// Default retry policy for reference fetches and submissions
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Delay < 0 {
		p.Delay = DefaultRetryDelay
	}
	return p
}

// FetchStatus is a snapshot of a fetcher. Failures is n in Failed(n).
type FetchStatus struct {
	Resource  string     `json:"resource"`
	State     FetchState `json:"-"`
	StateName string     `json:"state"`
	Failures  int        `json:"failures"`
	Source    Source     `json:"source,omitempty"`
}

type FetchResult[T any] struct {
	Items  []T
	Source Source
}

// Fetcher loads one reference list with retries and local fallbacks.
//
// A call made while another is running returns ErrFetchInProgress without any
// I/O. Each failed remote attempt increments the failure counter; below the
// policy ceiling the fetcher waits Policy.Delay and tries again, at the
// ceiling it serves the cache, then the seed. The counter is reset by a
// success or by ManualRetry and lives only in memory.
type Fetcher[T any] struct {
	Resource string
	Policy   RetryPolicy

	Remote    func(ctx context.Context) ([]T, error)
	LoadCache func(ctx context.Context) ([]T, error)
	SaveCache func(ctx context.Context, items []T) error
	// Seed is optional; nil means no seed fallback
	Seed func() []T
	// OnExhausted runs when remote, cache and seed all came up empty
	OnExhausted func(ctx context.Context, lastErr error)

	logger *zap.Logger

	mu       sync.Mutex
	state    FetchState
	failures int
	source   Source
}

func NewFetcher[T any](resource string, policy RetryPolicy, logger *zap.Logger) *Fetcher[T] {
	return &Fetcher[T]{
		Resource: resource,
		Policy:   policy.withDefaults(),
		logger:   logger.With(zap.String("resource", resource)),
	}
}

// Fetch runs the fetch state machine once
func (f *Fetcher[T]) Fetch(ctx context.Context) (FetchResult[T], error) {
	if err := f.begin(false); err != nil {
		return FetchResult[T]{}, err
	}
	return f.run(ctx)
}

// ManualRetry resets the failure counter and fetches again
func (f *Fetcher[T]) ManualRetry(ctx context.Context) (FetchResult[T], error) {
	if err := f.begin(true); err != nil {
		return FetchResult[T]{}, err
	}
	return f.run(ctx)
}

func (f *Fetcher[T]) Status() FetchStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FetchStatus{
		Resource:  f.Resource,
		State:     f.state,
		StateName: f.state.String(),
		Failures:  f.failures,
		Source:    f.source,
	}
}

func (f *Fetcher[T]) begin(reset bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateFetching {
		return ErrFetchInProgress
	}
	if reset {
		f.failures = 0
	}
	f.state = StateFetching
	return nil
}

func (f *Fetcher[T]) finish(state FetchState, source Source) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.source = source
	if state == StateSucceeded {
		f.failures = 0
	}
}

func (f *Fetcher[T]) run(ctx context.Context) (FetchResult[T], error) {
	policy := f.Policy.withDefaults()

	for {
		items, err := f.Remote(ctx)
		if err == nil {
			metrics.FetchAttemptsTotal.WithLabelValues(f.Resource, "success").Inc()
			if f.SaveCache != nil {
				if serr := f.SaveCache(ctx, items); serr != nil {
					f.logger.Warn("failed to cache list", zap.Error(serr))
				}
			}
			f.finish(StateSucceeded, SourceRemote)
			return FetchResult[T]{Items: items, Source: SourceRemote}, nil
		}

		metrics.FetchAttemptsTotal.WithLabelValues(f.Resource, "failure").Inc()
		failures := f.recordFailure()
		f.logger.Warn("fetch attempt failed",
			zap.Int("failures", failures),
			zap.Int("max_attempts", policy.MaxAttempts),
			zap.Error(err))

		if failures < policy.MaxAttempts {
			if serr := sleepCtx(ctx, policy.Delay); serr != nil {
				f.finish(StateFailed, SourceNone)
				return FetchResult[T]{}, serr
			}
			continue
		}
		return f.fallback(ctx, err)
	}
}

func (f *Fetcher[T]) recordFailure() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures++
	return f.failures
}

func (f *Fetcher[T]) fallback(ctx context.Context, lastErr error) (FetchResult[T], error) {
	if f.LoadCache != nil {
		cached, err := f.LoadCache(ctx)
		if err != nil {
			f.logger.Warn("failed to read cached list", zap.Error(err))
		}
		if len(cached) > 0 {
			metrics.FetchFallbacksTotal.WithLabelValues(f.Resource, string(SourceCache)).Inc()
			f.finish(StateFailed, SourceCache)
			return FetchResult[T]{Items: cached, Source: SourceCache}, nil
		}
	}

	if f.Seed != nil {
		if seed := f.Seed(); len(seed) > 0 {
			metrics.FetchFallbacksTotal.WithLabelValues(f.Resource, string(SourceSeed)).Inc()
			f.finish(StateFailed, SourceSeed)
			return FetchResult[T]{Items: seed, Source: SourceSeed}, nil
		}
	}

	metrics.FetchFallbacksTotal.WithLabelValues(f.Resource, string(SourceNone)).Inc()
	f.finish(StateFailed, SourceNone)
	if f.OnExhausted != nil {
		f.OnExhausted(ctx, lastErr)
	}
	return FetchResult[T]{Items: []T{}, Source: SourceNone}, fmt.Errorf("%s: %w: %w", f.Resource, ErrNotFoundLocally, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
