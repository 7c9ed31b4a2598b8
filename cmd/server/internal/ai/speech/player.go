// Package speech provides the read-aloud capability: text plus a voice
// locale in, start/end/error callbacks out, with a cancellable handle so at
// most one utterance is ever active.
package speech

import (
	"context"
	"errors"
)

// ErrUnavailable indicates no speech capability exists in this environment.
// Unavailability is terminal for a session; callers notify once and stop
// offering playback.
var ErrUnavailable = errors.New("speech synthesis unavailable")

// Events carries the playback lifecycle callbacks. Any field may be nil.
type Events struct {
	// OnStart fires when playback actually begins.
	OnStart func()

	// OnEnd fires when playback runs to completion (not on cancel).
	OnEnd func()

	// OnError fires when synthesis or playback fails.
	OnError func(err error)

	// OnAudio delivers the synthesized audio so the caller can serve it.
	OnAudio func(audio []byte, contentType string)
}

// Utterance is a handle to one in-flight playback.
type Utterance interface {
	// Cancel stops playback. Safe to call more than once; does not fire
	// OnEnd.
	Cancel()
}

// Player converts text to speech and plays it.
type Player interface {
	// Available reports whether the capability exists at all.
	Available() bool

	// Speak synthesizes text with the given BCP-47 voice locale and starts
	// playback. Callbacks report progress; the returned handle cancels.
	Speak(ctx context.Context, text, voiceLocale string, events Events) (Utterance, error)
}
