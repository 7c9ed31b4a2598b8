// Package session holds the core of the service: a per-session state
// machine that coordinates image acquisition, waste classification,
// description retrieval, batched UI localization with rate-limit fallback,
// and read-aloud playback over one shared mutable aggregate.
//
// All mutation happens inside the Controller under a single mutex, which
// stands in for the browser's single-threaded event loop. Remote calls are
// issued with the mutex released; their results re-enter through epoch
// checks so a result computed for a superseded selection or language is
// discarded instead of applied.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/acquire"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/classify"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/describe"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/speech"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/suggest"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/translate"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/i18n"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/waste"
	"github.com/agrisaathi/agriwaste/pkg/metrics"
)

var (
	// ErrBusy indicates the requested event is disabled while an earlier
	// operation is still in flight (new classification while classifying,
	// language change while the UI batch or description fetch is pending).
	ErrBusy = errors.New("another operation is in progress")

	// ErrUnknownWasteType indicates a manual selection outside the fixed
	// waste vocabulary.
	ErrUnknownWasteType = errors.New("unknown waste type")

	// ErrUnsupportedLanguage indicates a language code outside the
	// supported set.
	ErrUnsupportedLanguage = errors.New("unsupported language code")
)

// Notification display durations. Rate-limit toasts stay up longer so the
// "try again later" wording is actually read.
const (
	noteDuration          = 5 * time.Second
	rateLimitNoteDuration = 9 * time.Second
)

// Notification variants.
const (
	VariantNormal      = "normal"
	VariantDestructive = "destructive"
)

// Notification is one pending toast. Failure notifications always carry
// base-language text so they can be shown even when translation itself is
// the failing subsystem.
type Notification struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	Variant    string `json:"variant"`
	DurationMs int64  `json:"durationMs"`
}

// ClassificationRecorder receives one record per classification attempt
// and per manual override, typically backed by the rotating audit log.
type ClassificationRecorder interface {
	RecordClassification(sessionID, wasteType string, confidence float64, durationMs int64, outcome string)
	RecordCorrection(sessionID, predicted, selected string)
}

// Deps are the external collaborators a Controller orchestrates. Suggester
// and Recorder are optional; everything else must be set.
type Deps struct {
	Classifier classify.Classifier
	Describer  describe.Describer
	Translator translate.Translator
	Suggester  suggest.Suggester
	Speech     speech.Player
	Recorder   ClassificationRecorder
	Logger     *slog.Logger
}

// Controller owns one session aggregate and is the only writer to it.
type Controller struct {
	id   string
	deps Deps
	log  *slog.Logger

	mu            sync.Mutex
	image         *acquire.Payload
	prediction    *classify.Prediction
	manualSel     string
	isCorrecting  bool
	suggestions   []string
	descBase      string
	descDisplayed string
	activeLang    string
	uiStrings     i18n.Strings
	isClassifying bool
	isFetching    bool
	isTranslating bool
	isSpeaking    bool
	lastError     string
	notes         []Notification
	camera        acquire.CameraGate

	// selEpoch advances when the effective selection is replaced: new
	// acquisition, manual selection, reset. Classification and description
	// results captured under an older value are discarded on arrival.
	// Language changes do not touch it, so a classification in flight
	// survives a concurrent language switch.
	selEpoch uint64

	// langEpoch advances on every language change, the automatic reverts
	// included. Translation results apply only when both the selection and
	// the language they were computed for are still current.
	langEpoch uint64

	// speakSeq invalidates playback callbacks from superseded utterances.
	speakSeq      uint64
	utterance     speech.Utterance
	lastAudio     []byte
	lastAudioType string

	created     time.Time
	lastTouched time.Time
}

// NewController returns a fresh session in its initial state: no image, no
// prediction, base language, default UI strings.
func NewController(id string, deps Deps) *Controller {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	now := time.Now()
	return &Controller{
		id:          id,
		deps:        deps,
		log:         log.With("session_id", id),
		activeLang:  i18n.BaseLanguage,
		uiStrings:   i18n.Defaults(),
		created:     now,
		lastTouched: now,
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Snapshot is the state the UI renders. Notifications are drained by the
// snapshot that carries them.
type Snapshot struct {
	ID                    string               `json:"id"`
	HasImage              bool                 `json:"hasImage"`
	Prediction            *classify.Prediction `json:"prediction,omitempty"`
	ConfidenceBand        waste.ConfidenceBand `json:"confidenceBand,omitempty"`
	ManualSelection       string               `json:"manualSelection,omitempty"`
	Selection             string               `json:"selection,omitempty"`
	ShowCorrectionLink    bool                 `json:"showCorrectionLink"`
	IsCorrecting          bool                 `json:"isCorrecting"`
	Suggestions           []string             `json:"suggestions,omitempty"`
	Description           string               `json:"description,omitempty"`
	ActiveLanguage        string               `json:"activeLanguage"`
	UIStrings             map[string]string    `json:"uiStrings"`
	IsClassifying         bool                 `json:"isClassifying"`
	IsFetchingDescription bool                 `json:"isFetchingDescription"`
	IsTranslatingUI       bool                 `json:"isTranslatingUI"`
	IsSpeaking            bool                 `json:"isSpeaking"`
	CameraDenied          bool                 `json:"cameraDenied"`
	SpeechAvailable       bool                 `json:"speechAvailable"`
	LastError             string               `json:"lastError,omitempty"`
	Notifications         []Notification       `json:"notifications,omitempty"`
}

// Snapshot returns the current renderable state and drains pending
// notifications.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastTouched = time.Now()

	snap := Snapshot{
		ID:                    c.id,
		HasImage:              c.image != nil,
		ManualSelection:       c.manualSel,
		Selection:             c.currentSelectionLocked(),
		IsCorrecting:          c.isCorrecting,
		Description:           c.descDisplayed,
		ActiveLanguage:        c.activeLang,
		IsClassifying:         c.isClassifying,
		IsFetchingDescription: c.isFetching,
		IsTranslatingUI:       c.isTranslating,
		IsSpeaking:            c.isSpeaking,
		CameraDenied:          c.camera.Denied(),
		SpeechAvailable:       c.deps.Speech != nil && c.deps.Speech.Available(),
		LastError:             c.lastError,
	}

	// Once a manual selection exists it wins for display: the prediction's
	// confidence is never shown again and the correction link is hidden.
	if c.manualSel == "" && c.prediction != nil {
		p := *c.prediction
		snap.Prediction = &p
		snap.ConfidenceBand = waste.Band(p.Confidence)
		snap.ShowCorrectionLink = true
	}

	if len(c.suggestions) > 0 {
		snap.Suggestions = append([]string(nil), c.suggestions...)
	}

	snap.UIStrings = make(map[string]string, len(c.uiStrings))
	for k, v := range c.uiStrings {
		snap.UIStrings[string(k)] = v
	}

	snap.Notifications = c.notes
	c.notes = nil
	return snap
}

// ReportCameraPermission records the outcome of the browser permission
// prompt. A denial is terminal for the session: capture stays disabled and
// the user is never re-prompted.
func (c *Controller) ReportCameraPermission(granted bool) {
	c.camera.Report(granted)
	if granted {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = acquire.ErrCameraDenied.Error()
	c.notifyLocked("Camera access denied", "Camera capture is disabled for this session. You can still upload a photo.", VariantDestructive, noteDuration)
}

// Reset returns the session to its initial state. The camera gate is kept:
// a permission denial outlives an in-page reset.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelSpeechLocked()
	c.selEpoch++
	c.langEpoch++
	c.image = nil
	c.prediction = nil
	c.manualSel = ""
	c.isCorrecting = false
	c.suggestions = nil
	c.descBase = ""
	c.descDisplayed = ""
	c.activeLang = i18n.BaseLanguage
	c.uiStrings = i18n.Defaults()
	c.isClassifying = false
	c.isFetching = false
	c.isTranslating = false
	c.lastError = ""
	c.notes = nil
	c.lastAudio = nil
	c.lastAudioType = ""
}

// Close cancels any in-flight playback. Called when the session is
// destroyed or evicted.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelSpeechLocked()
}

// touched returns the last time a snapshot or event touched this session.
func (c *Controller) touched() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTouched
}

// currentSelectionLocked resolves the effective waste type: the manual
// selection when present, else the prediction's label, else empty.
func (c *Controller) currentSelectionLocked() string {
	if c.manualSel != "" {
		return c.manualSel
	}
	if c.prediction != nil {
		return c.prediction.WasteType
	}
	return ""
}

func (c *Controller) notifyLocked(title, message, variant string, duration time.Duration) {
	c.notes = append(c.notes, Notification{
		Title:      title,
		Message:    message,
		Variant:    variant,
		DurationMs: duration.Milliseconds(),
	})
}

// cancelSpeechLocked stops any active utterance and invalidates callbacks
// from it. Always called before a new utterance, on selection or language
// change, and on reset, so at most one utterance is ever active.
func (c *Controller) cancelSpeechLocked() {
	if c.utterance != nil {
		c.utterance.Cancel()
		c.utterance = nil
	}
	c.isSpeaking = false
	c.speakSeq++
}

// fallbackToBaseLocked is the rate-limit reaction shared by every
// translation path: revert the active language to the base language and
// restore all text to base-language originals, never leaving anything
// partially translated. Idempotent so concurrent UI and description
// translations that both hit the limit produce a single notification.
func (c *Controller) fallbackToBaseLocked(workflow string) {
	already := c.activeLang == i18n.BaseLanguage
	c.activeLang = i18n.BaseLanguage
	c.uiStrings = i18n.Defaults()
	c.descDisplayed = c.descBase
	if already {
		return
	}
	// The revert is itself a language change: advance the language epoch
	// so a sibling translation still in flight for the abandoned target is
	// discarded instead of applied on top of the restored text.
	c.langEpoch++
	metrics.RecordLanguageFallback(workflow)
	c.notifyLocked("Translation limit reached", "Too many translation requests right now. Reverted to English, please try again later.", VariantDestructive, rateLimitNoteDuration)
}

// revertLanguageLocked is the generic translation-failure reaction for the
// UI batch: full reset of the catalog and language so no partial UI
// translation is ever shown.
func (c *Controller) revertLanguageLocked() {
	already := c.activeLang == i18n.BaseLanguage
	c.activeLang = i18n.BaseLanguage
	c.uiStrings = i18n.Defaults()
	c.descDisplayed = c.descBase
	if already {
		return
	}
	c.langEpoch++
	c.notifyLocked(i18n.Default(i18n.KeyErrorTitle), "Translation is unavailable right now. Showing English.", VariantDestructive, noteDuration)
}

// callStatus maps a boundary error to the metric status label.
func callStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, translate.ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
