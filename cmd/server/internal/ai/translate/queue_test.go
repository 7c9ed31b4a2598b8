package translate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Doubles (Fakes)
// ============================================================================

// FakeTranslator is a test double recording calls and replaying preset
// errors. After the preset errors run out it succeeds with a "hi:" prefix.
type FakeTranslator struct {
	mu sync.Mutex

	// ErrsToReturn are consumed one per call, in order.
	ErrsToReturn []error

	// TextCalls and BatchCalls record the requests seen.
	TextCalls  []string
	BatchCalls [][]string

	// Delay simulates a slow wire call.
	Delay time.Duration
}

func (f *FakeTranslator) nextErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ErrsToReturn) == 0 {
		return nil
	}
	err := f.ErrsToReturn[0]
	f.ErrsToReturn = f.ErrsToReturn[1:]
	return err
}

func (f *FakeTranslator) TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
	f.mu.Lock()
	f.TextCalls = append(f.TextCalls, text)
	f.mu.Unlock()
	if err := f.nextErr(); err != nil {
		return "", err
	}
	return targetLang + ":" + text, nil
}

func (f *FakeTranslator) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
	f.mu.Lock()
	f.BatchCalls = append(f.BatchCalls, texts)
	f.mu.Unlock()
	if err := f.nextErr(); err != nil {
		return nil, err
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = targetLang + ":" + t
	}
	return out, nil
}

func (f *FakeTranslator) textCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.TextCalls)
}

// ============================================================================
// Queue Tests
// ============================================================================

func newTestQueue(inner Translator) *Queue {
	return NewQueue(inner, QueueConfig{
		BaseLanguage:   "en",
		MaxConcurrent:  2,
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	})
}

func TestQueue_BaseLanguageShortCircuit(t *testing.T) {
	fake := &FakeTranslator{}
	q := newTestQueue(fake)

	// Translating into the base language returns input unchanged, no call.
	got, err := q.TranslateText(context.Background(), "Rice Husk info", "en", "en")
	require.NoError(t, err)
	assert.Equal(t, "Rice Husk info", got)

	batch, err := q.TranslateBatch(context.Background(), []string{"a", "b"}, "en", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, batch)

	assert.Zero(t, fake.textCallCount(), "base-language translation must not hit the wire")
	assert.Empty(t, fake.BatchCalls)
}

func TestQueue_RetriesRateLimitThenSucceeds(t *testing.T) {
	fake := &FakeTranslator{ErrsToReturn: []error{ErrRateLimited, ErrRateLimited}}
	q := newTestQueue(fake)

	got, err := q.TranslateText(context.Background(), "text", "en", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi:text", got)
	assert.Equal(t, 3, fake.textCallCount(), "expected two rate-limited attempts plus one success")
}

func TestQueue_SurfacesRateLimitAfterAttemptsExhausted(t *testing.T) {
	fake := &FakeTranslator{ErrsToReturn: []error{ErrRateLimited, ErrRateLimited, ErrRateLimited}}
	q := newTestQueue(fake)

	_, err := q.TranslateText(context.Background(), "text", "en", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 3, fake.textCallCount())
}

func TestQueue_GenericFailureIsNotRetried(t *testing.T) {
	boom := errors.New("service exploded")
	fake := &FakeTranslator{ErrsToReturn: []error{boom}}
	q := newTestQueue(fake)

	_, err := q.TranslateText(context.Background(), "text", "en", "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, fake.textCallCount(), "generic failures must not be retried")
}

func TestQueue_ShapeErrorPassesThrough(t *testing.T) {
	fake := &FakeTranslator{ErrsToReturn: []error{ErrBadShape}}
	q := newTestQueue(fake)

	_, err := q.TranslateBatch(context.Background(), []string{"a"}, "en", "hi")
	assert.ErrorIs(t, err, ErrBadShape)
}

func TestQueue_DedupsIdenticalInFlightRequests(t *testing.T) {
	fake := &FakeTranslator{Delay: 20 * time.Millisecond}
	q := newTestQueue(fake)

	var wg sync.WaitGroup
	results := make([]string, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := q.TranslateText(context.Background(), "same text", "en", "hi")
			require.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "hi:same text", r)
	}
	assert.Equal(t, 1, fake.textCallCount(), "identical in-flight requests must collapse to one wire call")
}

func TestQueue_DistinctTargetsAreNotDeduped(t *testing.T) {
	fake := &FakeTranslator{Delay: 10 * time.Millisecond}
	q := newTestQueue(fake)

	var wg sync.WaitGroup
	for _, lang := range []string{"hi", "ta"} {
		wg.Add(1)
		go func(lang string) {
			defer wg.Done()
			_, err := q.TranslateText(context.Background(), "same text", "en", lang)
			require.NoError(t, err)
		}(lang)
	}
	wg.Wait()

	assert.Equal(t, 2, fake.textCallCount())
}

func TestQueue_ContextCancelDuringBackoff(t *testing.T) {
	fake := &FakeTranslator{ErrsToReturn: []error{ErrRateLimited, ErrRateLimited, ErrRateLimited}}
	q := NewQueue(fake, QueueConfig{
		BaseLanguage:   "en",
		MaxConcurrent:  1,
		MaxAttempts:    3,
		InitialBackoff: time.Hour, // backoff long enough that cancel wins
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := q.TranslateText(ctx, "text", "en", "hi")
		done <- err
	}()

	// Give the first attempt time to fail and enter backoff.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("queue did not honor context cancellation during backoff")
	}
}
