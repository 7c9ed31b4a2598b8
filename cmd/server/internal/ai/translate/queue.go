package translate

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// QueueConfig tunes the request queue in front of the wire translator.
type QueueConfig struct {
	// BaseLanguage short-circuits: translating into it returns the input
	// unchanged without touching the network.
	BaseLanguage string

	// MaxConcurrent bounds in-flight translation requests.
	MaxConcurrent int64

	// MaxAttempts is the total number of tries for a rate-limited request
	// before ErrRateLimited is surfaced to the caller.
	MaxAttempts int

	// InitialBackoff is the first retry delay; it doubles per attempt.
	InitialBackoff time.Duration
}

// Queue wraps a Translator with bounded concurrency, exponential backoff on
// the rate-limit discriminator, and in-flight deduplication of identical
// requests. Only rate-limited calls are retried; generic failures surface
// immediately.
type Queue struct {
	inner  Translator
	config QueueConfig
	sem    *semaphore.Weighted
	group  singleflight.Group
}

// NewQueue creates a Queue around the given wire translator.
func NewQueue(inner Translator, config QueueConfig) *Queue {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 2
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = 500 * time.Millisecond
	}
	return &Queue{
		inner:  inner,
		config: config,
		sem:    semaphore.NewWeighted(config.MaxConcurrent),
	}
}

// TranslateText translates one string through the queue.
func (q *Queue) TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if targetLang == q.config.BaseLanguage {
		return text, nil
	}

	key := requestKey(targetLang, sourceLang, text)
	v, err, _ := q.group.Do(key, func() (interface{}, error) {
		return q.withQueue(ctx, func(ctx context.Context) (interface{}, error) {
			return q.inner.TranslateText(ctx, text, sourceLang, targetLang)
		})
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// TranslateBatch translates an ordered list through the queue.
func (q *Queue) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if targetLang == q.config.BaseLanguage {
		out := make([]string, len(texts))
		copy(out, texts)
		return out, nil
	}

	key := requestKey(targetLang, sourceLang, texts...)
	v, err, _ := q.group.Do(key, func() (interface{}, error) {
		return q.withQueue(ctx, func(ctx context.Context) (interface{}, error) {
			return q.inner.TranslateBatch(ctx, texts, sourceLang, targetLang)
		})
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// withQueue acquires a concurrency slot and runs fn with backoff retries on
// rate limiting.
func (q *Queue) withQueue(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer q.sem.Release(1)

	backoff := q.config.InitialBackoff
	var lastErr error
	for attempt := 0; attempt < q.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			backoff *= 2
		}

		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !errors.Is(err, ErrRateLimited) {
			return nil, err
		}
	}
	return nil, lastErr
}

// requestKey builds the dedup key for identical in-flight requests.
func requestKey(targetLang, sourceLang string, texts ...string) string {
	return targetLang + "|" + sourceLang + "|" + strings.Join(texts, "\x1f")
}
