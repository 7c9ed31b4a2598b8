package session

import (
	"context"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/speech"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/i18n"
	"github.com/agrisaathi/agriwaste/pkg/metrics"
)

// ToggleReadAloud starts or stops playback of the displayed description.
// With no displayable non-placeholder description, or no speech
// capability, it is a no-op with a notification. A new playback always
// cancels the prior utterance first, so at most one is active; playback
// uses the voice locale mapped from the active language.
func (c *Controller) ToggleReadAloud(ctx context.Context) error {
	c.mu.Lock()
	if c.isSpeaking {
		c.cancelSpeechLocked()
		c.mu.Unlock()
		metrics.RecordSpeechPlayback("cancelled")
		return nil
	}

	text := c.descDisplayed
	if text == "" || text == i18n.Default(i18n.KeyDescriptionError) {
		c.notifyLocked("Nothing to read", "No description is available to read aloud.", VariantNormal, noteDuration)
		c.mu.Unlock()
		return nil
	}
	if c.deps.Speech == nil || !c.deps.Speech.Available() {
		c.notifyLocked("Read aloud unavailable", "Speech is not supported in this environment.", VariantNormal, noteDuration)
		c.mu.Unlock()
		metrics.RecordSpeechPlayback("unavailable")
		return nil
	}

	c.cancelSpeechLocked()
	seq := c.speakSeq
	voice := i18n.VoiceLocale(c.activeLang)
	c.mu.Unlock()

	events := speech.Events{
		OnStart: func() {
			c.mu.Lock()
			if c.speakSeq == seq {
				c.isSpeaking = true
			}
			c.mu.Unlock()
		},
		OnEnd: func() {
			c.mu.Lock()
			if c.speakSeq == seq {
				c.isSpeaking = false
				c.utterance = nil
			}
			c.mu.Unlock()
			metrics.RecordSpeechPlayback("success")
		},
		OnError: func(err error) {
			c.mu.Lock()
			if c.speakSeq == seq {
				c.isSpeaking = false
				c.utterance = nil
				c.notifyLocked(i18n.Default(i18n.KeyErrorTitle), "Could not play the description audio.", VariantDestructive, noteDuration)
			}
			c.mu.Unlock()
			metrics.RecordSpeechPlayback("error")
			c.log.Warn("speech playback failed", "error", err)
		},
		OnAudio: func(audio []byte, contentType string) {
			c.mu.Lock()
			if c.speakSeq == seq {
				c.lastAudio = audio
				c.lastAudioType = contentType
			}
			c.mu.Unlock()
		},
	}

	utt, err := c.deps.Speech.Speak(ctx, text, voice, events)
	if err != nil {
		c.mu.Lock()
		if c.speakSeq == seq {
			c.notifyLocked(i18n.Default(i18n.KeyErrorTitle), "Could not start read aloud.", VariantDestructive, noteDuration)
		}
		c.mu.Unlock()
		metrics.RecordSpeechPlayback("error")
		return nil
	}

	c.mu.Lock()
	if c.speakSeq == seq {
		c.utterance = utt
	} else {
		// A selection, language change or reset superseded this playback
		// while synthesis was running.
		utt.Cancel()
	}
	c.mu.Unlock()
	return nil
}

// LastAudio returns the most recently synthesized audio, so the API can
// serve it for actual playback.
func (c *Controller) LastAudio() ([]byte, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lastAudio) == 0 {
		return nil, "", false
	}
	return c.lastAudio, c.lastAudioType, true
}
