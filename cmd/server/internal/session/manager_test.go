package session

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(idleTTL time.Duration) *Manager {
	return NewManager(Deps{
		Classifier: &fakeClassifier{},
		Describer:  &fakeDescriber{},
		Translator: &fakeTranslator{},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, idleTTL)
}

func TestManagerCreateGetDelete(t *testing.T) {
	m := newTestManager(0)

	c := m.Create()
	require.NotEmpty(t, c.ID())
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get(c.ID())
	require.True(t, ok)
	assert.Same(t, c, got)

	_, ok = m.Get("no-such-session")
	assert.False(t, ok)

	assert.True(t, m.Delete(c.ID()))
	assert.False(t, m.Delete(c.ID()))
	assert.Equal(t, 0, m.Len())
}

func TestManagerSessionsAreIndependent(t *testing.T) {
	m := newTestManager(0)

	a := m.Create()
	b := m.Create()
	require.NotEqual(t, a.ID(), b.ID())

	a.ReportCameraPermission(false)
	assert.True(t, a.Snapshot().CameraDenied)
	assert.False(t, b.Snapshot().CameraDenied)
}

func TestManagerSweepEvictsIdleSessions(t *testing.T) {
	m := newTestManager(time.Minute)

	idle := m.Create()
	fresh := m.Create()

	idle.mu.Lock()
	idle.lastTouched = time.Now().Add(-2 * time.Minute)
	idle.mu.Unlock()

	m.sweep()

	_, ok := m.Get(idle.ID())
	assert.False(t, ok, "idle session should be evicted")
	_, ok = m.Get(fresh.ID())
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestManagerStopIsIdempotent(t *testing.T) {
	m := newTestManager(0)
	m.StartJanitor(10 * time.Millisecond)
	m.Stop()
	m.Stop()
}
