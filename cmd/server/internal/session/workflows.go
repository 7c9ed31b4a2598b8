package session

import (
	"context"
	"fmt"
	"time"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/acquire"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/i18n"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/waste"
	"github.com/agrisaathi/agriwaste/pkg/logger"
	"github.com/agrisaathi/agriwaste/pkg/metrics"
)

// AcquireFromFile normalizes an uploaded file into an image payload and
// runs classification on it. Unreadable input is an acquisition error: it
// sets lastError and aborts without touching the rest of the state.
func (c *Controller) AcquireFromFile(ctx context.Context, filename string, data []byte) error {
	payload, err := acquire.FromFile(filename, data)
	return c.acquireAndClassify(ctx, payload, err)
}

// AcquireFromCamera normalizes a captured frame and runs classification.
// Capture requires a previously granted camera permission; after a denial
// it fails locally without re-prompting.
func (c *Controller) AcquireFromCamera(ctx context.Context, frame []byte) error {
	if err := c.camera.Check(); err != nil {
		c.mu.Lock()
		c.lastError = err.Error()
		c.notifyLocked(i18n.Default(i18n.KeyErrorTitle), err.Error(), VariantDestructive, noteDuration)
		c.mu.Unlock()
		return err
	}
	payload, err := acquire.FromCameraFrame(frame)
	return c.acquireAndClassify(ctx, payload, err)
}

// acquireAndClassify installs a new image and runs the single
// classification attempt for it. The UI contract forbids a new acquisition
// while a classification is in flight, so the entry point rejects with
// ErrBusy instead of queueing.
func (c *Controller) acquireAndClassify(ctx context.Context, payload acquire.Payload, acqErr error) error {
	c.mu.Lock()
	if c.isClassifying {
		c.mu.Unlock()
		return ErrBusy
	}
	if acqErr != nil {
		c.lastError = acqErr.Error()
		c.notifyLocked(i18n.Default(i18n.KeyErrorTitle), acqErr.Error(), VariantDestructive, noteDuration)
		c.mu.Unlock()
		return acqErr
	}

	// Full reset of selection and description state before classification
	// starts, so nothing stale is briefly visible.
	c.cancelSpeechLocked()
	c.selEpoch++
	sel := c.selEpoch
	c.image = &payload
	c.prediction = nil
	c.manualSel = ""
	c.isCorrecting = false
	c.suggestions = nil
	c.descBase = ""
	c.descDisplayed = ""
	c.lastError = ""
	c.isClassifying = true
	c.mu.Unlock()

	c.runClassification(ctx, payload, sel)
	return nil
}

// runClassification performs the one classification attempt per
// acquisition. Failure is absorbed into session state (lastError plus a
// notification); the user retries by acquiring again. The result is
// checked against the selection epoch only: a language change while the
// model is working never discards it.
func (c *Controller) runClassification(ctx context.Context, payload acquire.Payload, sel uint64) {
	start := time.Now()
	pred, err := c.deps.Classifier.Classify(ctx, payload.DataURI())
	durMs := time.Since(start).Milliseconds()
	metrics.RecordAIRequest("classify", callStatus(err))
	metrics.RecordAIRequestDuration("classify", time.Since(start).Seconds())

	c.mu.Lock()
	c.isClassifying = false
	if c.selEpoch != sel {
		c.mu.Unlock()
		logger.LogWorkflowEvent(c.log, "classify", "stale_discard", c.id, durMs, "")
		return
	}
	if err != nil {
		c.lastError = "Could not classify the waste type. Please try another photo."
		c.notifyLocked(i18n.Default(i18n.KeyErrorTitle), c.lastError, VariantDestructive, noteDuration)
		c.mu.Unlock()
		if c.deps.Recorder != nil {
			c.deps.Recorder.RecordClassification(c.id, "", 0, durMs, "error")
		}
		logger.LogWorkflowEvent(c.log, "classify", "error", c.id, durMs, "classification_failed")
		return
	}

	c.prediction = &pred
	c.manualSel = ""
	c.lastError = ""
	c.notifyLocked("Detected: "+pred.WasteType, fmt.Sprintf("Confidence %.0f%%.", pred.Confidence*100), VariantNormal, noteDuration)
	c.mu.Unlock()

	if c.deps.Recorder != nil {
		c.deps.Recorder.RecordClassification(c.id, pred.WasteType, pred.Confidence, durMs, "success")
	}
	logger.LogWorkflowEvent(c.log, "classify", "success", c.id, durMs, "")

	c.fetchDescription(ctx, pred.WasteType, sel)
}

// SelectManual overrides the prediction with a user-chosen waste type and
// re-runs the description workflow for it. Selecting the already current
// type only leaves correction mode.
func (c *Controller) SelectManual(ctx context.Context, label string) error {
	normalized, ok := waste.Normalize(label)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWasteType, label)
	}

	c.mu.Lock()
	if c.isClassifying {
		c.mu.Unlock()
		return ErrBusy
	}
	if normalized == c.currentSelectionLocked() {
		c.isCorrecting = false
		c.suggestions = nil
		c.mu.Unlock()
		return nil
	}
	c.cancelSpeechLocked()
	c.selEpoch++
	sel := c.selEpoch
	var predicted string
	if c.prediction != nil {
		predicted = c.prediction.WasteType
	}
	c.manualSel = normalized
	c.isCorrecting = false
	c.suggestions = nil
	c.notifyLocked("Type updated", "Waste type set to "+normalized+".", VariantNormal, noteDuration)
	c.mu.Unlock()

	if c.deps.Recorder != nil && predicted != "" {
		c.deps.Recorder.RecordCorrection(c.id, predicted, normalized)
	}

	c.fetchDescription(ctx, normalized, sel)
	return nil
}

// BeginCorrection enters manual-override mode and returns the choice list:
// model suggestions for this image first, the rest of the fixed vocabulary
// after. Suggestion failures are silent; the fixed list is always a valid
// fallback.
func (c *Controller) BeginCorrection(ctx context.Context) []string {
	c.mu.Lock()
	c.isCorrecting = true
	c.suggestions = nil
	var imageURI string
	if c.image != nil {
		imageURI = c.image.DataURI()
	}
	initial := c.currentSelectionLocked()
	c.mu.Unlock()

	if c.deps.Suggester == nil || imageURI == "" {
		return append([]string(nil), waste.Types...)
	}

	start := time.Now()
	suggested, err := c.deps.Suggester.Suggest(ctx, imageURI, initial)
	metrics.RecordAIRequest("suggest", callStatus(err))
	metrics.RecordAIRequestDuration("suggest", time.Since(start).Seconds())
	if err != nil || len(suggested) == 0 {
		if err != nil {
			c.log.Warn("correction suggestions unavailable", "error", err)
		}
		return append([]string(nil), waste.Types...)
	}

	c.mu.Lock()
	if c.isCorrecting {
		c.suggestions = append([]string(nil), suggested...)
	}
	c.mu.Unlock()
	return orderWithSuggestions(suggested)
}

// CancelCorrection leaves manual-override mode without changing the
// selection.
func (c *Controller) CancelCorrection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isCorrecting = false
	c.suggestions = nil
}

// fetchDescription runs the description workflow for one selection value.
// Exactly one description-service call happens per distinct selection;
// language changes re-translate the stored base description instead of
// re-fetching. A result arriving after the selection has moved on is
// discarded.
func (c *Controller) fetchDescription(ctx context.Context, selection string, sel uint64) {
	c.mu.Lock()
	if c.selEpoch != sel {
		c.mu.Unlock()
		return
	}
	c.isFetching = true
	c.descBase = ""
	c.descDisplayed = ""
	c.mu.Unlock()

	start := time.Now()
	text, err := c.deps.Describer.Describe(ctx, selection)
	durMs := time.Since(start).Milliseconds()
	metrics.RecordAIRequest("describe", callStatus(err))
	metrics.RecordAIRequestDuration("describe", time.Since(start).Seconds())

	c.mu.Lock()
	if c.selEpoch != sel {
		c.mu.Unlock()
		logger.LogWorkflowEvent(c.log, "describe", "stale_discard", c.id, durMs, "")
		return
	}
	c.isFetching = false
	if err != nil {
		// Generic description failure: placeholder in place of the text,
		// the successful prediction stays.
		c.descDisplayed = i18n.Default(i18n.KeyDescriptionError)
		c.notifyLocked(i18n.Default(i18n.KeyErrorTitle), "Could not load details for "+selection+".", VariantDestructive, noteDuration)
		c.mu.Unlock()
		logger.LogWorkflowEvent(c.log, "describe", "error", c.id, durMs, "description_failed")
		return
	}
	c.descBase = text
	// The translation target is the language active now, not when the
	// fetch started: the user may have switched while the model worked.
	lang := c.activeLang
	langE := c.langEpoch
	if lang == i18n.BaseLanguage {
		c.descDisplayed = text
		c.mu.Unlock()
		logger.LogWorkflowEvent(c.log, "describe", "success", c.id, durMs, "")
		return
	}
	c.mu.Unlock()
	logger.LogWorkflowEvent(c.log, "describe", "success", c.id, durMs, "")

	c.translateDescription(ctx, text, lang, sel, langE)
}

// orderWithSuggestions puts the suggested labels first and the remaining
// fixed vocabulary after, without duplicates.
func orderWithSuggestions(suggested []string) []string {
	out := make([]string, 0, len(waste.Types))
	seen := make(map[string]bool, len(waste.Types))
	for _, s := range suggested {
		if !seen[s] && waste.IsKnown(s) {
			out = append(out, s)
			seen[s] = true
		}
	}
	for _, t := range waste.Types {
		if !seen[t] {
			out = append(out, t)
		}
	}
	return out
}
