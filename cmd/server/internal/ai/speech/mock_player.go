package speech

import (
	"context"
	"sync"
)

// MockPlayer is a synchronous Player for tests and for degraded operation
// without a TTS endpoint. Speak fires OnAudio/OnStart immediately; EndAll
// completes playback on demand.
type MockPlayer struct {
	mu sync.Mutex

	// Unavailable makes Speak fail with ErrUnavailable.
	Unavailable bool

	// FailWith, when set, is reported through OnError instead of playing.
	FailWith error

	// Spoken records the texts and voices passed to Speak.
	Spoken []MockUtteranceRecord

	active []*mockUtterance
}

// MockUtteranceRecord is one recorded Speak call.
type MockUtteranceRecord struct {
	Text  string
	Voice string
}

// Available reports the configured availability.
func (m *MockPlayer) Available() bool { return !m.Unavailable }

// Speak records the call and fires callbacks synchronously.
func (m *MockPlayer) Speak(ctx context.Context, text, voiceLocale string, events Events) (Utterance, error) {
	if m.Unavailable {
		return nil, ErrUnavailable
	}

	m.mu.Lock()
	m.Spoken = append(m.Spoken, MockUtteranceRecord{Text: text, Voice: voiceLocale})
	m.mu.Unlock()

	if m.FailWith != nil {
		if events.OnError != nil {
			events.OnError(m.FailWith)
		}
		return &mockUtterance{}, nil
	}

	if events.OnAudio != nil {
		events.OnAudio([]byte("RIFF-mock-audio"), "audio/wav")
	}
	if events.OnStart != nil {
		events.OnStart()
	}

	u := &mockUtterance{events: events}
	m.mu.Lock()
	m.active = append(m.active, u)
	m.mu.Unlock()
	return u, nil
}

// EndAll completes every active utterance, firing OnEnd for those not
// already cancelled.
func (m *MockPlayer) EndAll() {
	m.mu.Lock()
	active := m.active
	m.active = nil
	m.mu.Unlock()
	for _, u := range active {
		u.end()
	}
}

type mockUtterance struct {
	mu        sync.Mutex
	cancelled bool
	ended     bool
	events    Events
}

func (u *mockUtterance) Cancel() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.cancelled = true
}

func (u *mockUtterance) end() {
	u.mu.Lock()
	fire := !u.cancelled && !u.ended
	u.ended = true
	events := u.events
	u.mu.Unlock()
	if fire && events.OnEnd != nil {
		events.OnEnd()
	}
}
