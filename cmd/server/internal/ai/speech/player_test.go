package speech

import (
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// shortWAV builds a canonical WAV header plus dataLen bytes of silence with
// the given byte rate, so playbackDuration is deterministic in tests.
func shortWAV(byteRate uint32, dataLen int) []byte {
	buf := make([]byte, 44+dataLen)
	copy(buf[0:4], "RIFF")
	copy(buf[8:12], "WAVE")
	binary.LittleEndian.PutUint32(buf[28:32], byteRate)
	return buf
}

func TestHTTPPlayer_Speak(t *testing.T) {
	t.Run("full playback lifecycle", func(t *testing.T) {
		audio := shortWAV(32000, 320) // 10ms of audio
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "audio/wav")
			w.Write(audio)
		}))
		defer server.Close()

		player := NewHTTPPlayer(server.URL, time.Second)

		var started, ended atomic.Bool
		var gotAudio atomic.Bool
		done := make(chan struct{})

		_, err := player.Speak(context.Background(), "Rice husk is the outer layer.", "hi-IN", Events{
			OnAudio: func(a []byte, contentType string) {
				gotAudio.Store(len(a) == len(audio) && contentType == "audio/wav")
			},
			OnStart: func() { started.Store(true) },
			OnEnd: func() {
				ended.Store(true)
				close(done)
			},
		})
		if err != nil {
			t.Fatalf("Speak() error = %v", err)
		}

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("OnEnd never fired")
		}

		if !started.Load() || !ended.Load() || !gotAudio.Load() {
			t.Errorf("callbacks: started=%v ended=%v audio=%v", started.Load(), ended.Load(), gotAudio.Load())
		}
	})

	t.Run("survives caller context cancellation", func(t *testing.T) {
		// The HTTP handler that starts playback returns immediately and its
		// request context is cancelled; playback must keep going anyway.
		audio := shortWAV(32000, 320)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "audio/wav")
			w.Write(audio)
		}))
		defer server.Close()

		player := NewHTTPPlayer(server.URL, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		var started atomic.Bool
		var failed atomic.Bool
		done := make(chan struct{})

		_, err := player.Speak(ctx, "text", "hi-IN", Events{
			OnStart: func() { started.Store(true) },
			OnEnd:   func() { close(done) },
			OnError: func(error) { failed.Store(true) },
		})
		if err != nil {
			t.Fatalf("Speak() error = %v", err)
		}
		cancel()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("playback did not complete after the caller context was cancelled")
		}
		if !started.Load() {
			t.Error("OnStart never fired")
		}
		if failed.Load() {
			t.Error("OnError fired; synthesis was killed by the caller's context")
		}
	})

	t.Run("cancel suppresses OnEnd", func(t *testing.T) {
		audio := shortWAV(32, 32000) // very long playback
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(audio)
		}))
		defer server.Close()

		player := NewHTTPPlayer(server.URL, time.Second)

		started := make(chan struct{})
		var ended atomic.Bool
		u, err := player.Speak(context.Background(), "text", "en-IN", Events{
			OnStart: func() { close(started) },
			OnEnd:   func() { ended.Store(true) },
		})
		if err != nil {
			t.Fatalf("Speak() error = %v", err)
		}

		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("OnStart never fired")
		}

		u.Cancel()
		u.Cancel() // idempotent
		time.Sleep(50 * time.Millisecond)
		if ended.Load() {
			t.Error("OnEnd fired after cancel")
		}
	})

	t.Run("synthesis failure reaches OnError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		player := NewHTTPPlayer(server.URL, time.Second)

		errCh := make(chan error, 1)
		_, err := player.Speak(context.Background(), "text", "en-IN", Events{
			OnError: func(err error) { errCh <- err },
		})
		if err != nil {
			t.Fatalf("Speak() error = %v", err)
		}

		select {
		case err := <-errCh:
			if err == nil {
				t.Error("OnError fired with nil error")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("OnError never fired")
		}
	})

	t.Run("unconfigured endpoint is unavailable", func(t *testing.T) {
		player := NewHTTPPlayer("", time.Second)
		if player.Available() {
			t.Error("Available() = true with no endpoint")
		}
		_, err := player.Speak(context.Background(), "text", "en-IN", Events{})
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
	})
}

func TestPlaybackDuration(t *testing.T) {
	// 32000 bytes/s over 16000 data bytes = 500ms.
	if got := playbackDuration(shortWAV(32000, 16000)); got != 500*time.Millisecond {
		t.Errorf("playbackDuration = %v, want 500ms", got)
	}
	// Unparseable audio falls back to the default rather than zero.
	if got := playbackDuration([]byte("mp3-ish")); got <= 0 {
		t.Errorf("fallback duration = %v, want > 0", got)
	}
}

func TestMockPlayer(t *testing.T) {
	m := &MockPlayer{}

	var started, ended bool
	u, err := m.Speak(context.Background(), "hello", "en-IN", Events{
		OnStart: func() { started = true },
		OnEnd:   func() { ended = true },
	})
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if !started {
		t.Error("OnStart not fired synchronously")
	}

	m.EndAll()
	if !ended {
		t.Error("EndAll did not fire OnEnd")
	}

	// Cancelled utterances never see OnEnd.
	ended = false
	u2, _ := m.Speak(context.Background(), "again", "hi-IN", Events{
		OnEnd: func() { ended = true },
	})
	u2.Cancel()
	m.EndAll()
	if ended {
		t.Error("OnEnd fired for a cancelled utterance")
	}
	_ = u

	if len(m.Spoken) != 2 || m.Spoken[1].Voice != "hi-IN" {
		t.Errorf("Spoken records = %+v", m.Spoken)
	}
}
