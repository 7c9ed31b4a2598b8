package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// HTTPPlayer synthesizes speech through an HTTP TTS endpoint and simulates
// playback timing from the returned WAV audio, driving the same callback
// contract a browser speech queue would.
type HTTPPlayer struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPPlayer creates a player for the given TTS endpoint. An empty
// endpoint means the capability is absent.
func NewHTTPPlayer(endpoint string, timeout time.Duration) *HTTPPlayer {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPPlayer{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Available reports whether a TTS endpoint is configured.
func (p *HTTPPlayer) Available() bool { return p.endpoint != "" }

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// Speak synthesizes and "plays" the text. Synthesis and playback run in a
// background goroutine; the returned handle cancels playback. Playback
// outlives the triggering request: the handler that started it returns
// immediately, so the caller's context must not be able to kill the
// synthesis call mid-flight. Cancellation goes through the handle only.
func (p *HTTPPlayer) Speak(ctx context.Context, text, voiceLocale string, events Events) (Utterance, error) {
	if !p.Available() {
		return nil, ErrUnavailable
	}

	u := newUtterance()
	go p.run(context.WithoutCancel(ctx), u, text, voiceLocale, events)
	return u, nil
}

func (p *HTTPPlayer) run(ctx context.Context, u *utterance, text, voiceLocale string, events Events) {
	audio, contentType, err := p.synthesize(ctx, text, voiceLocale)
	if err != nil {
		if events.OnError != nil {
			events.OnError(err)
		}
		return
	}
	if u.cancelled() {
		return
	}

	if events.OnAudio != nil {
		events.OnAudio(audio, contentType)
	}
	if events.OnStart != nil {
		events.OnStart()
	}

	timer := time.NewTimer(playbackDuration(audio))
	defer timer.Stop()
	select {
	case <-u.done:
		// Cancelled mid-playback; no OnEnd.
	case <-timer.C:
		if events.OnEnd != nil {
			events.OnEnd()
		}
	}
}

func (p *HTTPPlayer) synthesize(ctx context.Context, text, voiceLocale string) ([]byte, string, error) {
	payload, err := json.Marshal(synthesizeRequest{Text: text, Voice: voiceLocale})
	if err != nil {
		return nil, "", fmt.Errorf("failed to serialize synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("speech service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, "", fmt.Errorf("speech service returned error (HTTP %d): %s", resp.StatusCode, body)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("speech service returned empty audio")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}
	return audio, contentType, nil
}

// playbackDuration estimates how long the audio takes to play, reading the
// byte rate from the WAV header. Unparseable audio gets a conservative
// default so OnEnd still fires.
func playbackDuration(audio []byte) time.Duration {
	// WAV fmt chunk byte rate lives at offset 28 in a canonical header.
	if len(audio) > 44 && bytes.HasPrefix(audio, []byte("RIFF")) {
		byteRate := binary.LittleEndian.Uint32(audio[28:32])
		if byteRate > 0 {
			dataLen := len(audio) - 44
			return time.Duration(dataLen) * time.Second / time.Duration(byteRate)
		}
	}
	return 2 * time.Second
}

// utterance implements Utterance with an idempotent cancel.
type utterance struct {
	once sync.Once
	done chan struct{}
}

func newUtterance() *utterance {
	return &utterance{done: make(chan struct{})}
}

func (u *utterance) Cancel() {
	u.once.Do(func() { close(u.done) })
}

func (u *utterance) cancelled() bool {
	select {
	case <-u.done:
		return true
	default:
		return false
	}
}
