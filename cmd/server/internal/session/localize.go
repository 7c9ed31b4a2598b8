package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/translate"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/i18n"
	"github.com/agrisaathi/agriwaste/pkg/logger"
	"github.com/agrisaathi/agriwaste/pkg/metrics"
)

// SetLanguage switches the active language. The base language is served
// locally: default UI strings, base description, no network calls. Any
// other target issues one batched translation of the UI catalog and, when
// a description exists, a concurrent re-translation of its stored
// base-language original. Each task applies its own result under a
// language-epoch check, so a later language change discards whatever is
// still pending; a classification running concurrently is untouched.
//
// The language control is disabled while the UI batch or a description
// fetch is in flight; the API enforces the same with ErrBusy.
func (c *Controller) SetLanguage(ctx context.Context, code string) error {
	if !i18n.IsSupported(code) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	c.mu.Lock()
	if c.isTranslating || c.isFetching {
		c.mu.Unlock()
		return ErrBusy
	}
	if code == c.activeLang {
		c.mu.Unlock()
		return nil
	}
	c.cancelSpeechLocked()
	c.langEpoch++
	langE := c.langEpoch
	sel := c.selEpoch
	c.activeLang = code

	if code == i18n.BaseLanguage {
		c.uiStrings = i18n.Defaults()
		c.descDisplayed = c.descBase
		c.mu.Unlock()
		return nil
	}

	c.isTranslating = true
	base := c.descBase
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.localizeUI(gctx, code, langE)
		return nil
	})
	if base != "" {
		g.Go(func() error {
			c.translateDescription(gctx, base, code, sel, langE)
			return nil
		})
	}
	_ = g.Wait()
	return nil
}

// localizeUI issues the single batched translation of the translatable UI
// strings and rebuilds the catalog from the response. Volatile entries
// (loading and error placeholders) are never sent and keep their
// base-language defaults. Any failure, length mismatch included, restores
// the full default catalog and reverts the language, so a partially
// translated UI is never shown.
func (c *Controller) localizeUI(ctx context.Context, target string, langE uint64) {
	start := time.Now()
	translated, err := c.deps.Translator.TranslateBatch(ctx, i18n.TranslatableDefaults(), i18n.BaseLanguage, target)
	durMs := time.Since(start).Milliseconds()
	metrics.RecordAIRequest("translate", callStatus(err))
	metrics.RecordAIRequestDuration("translate", time.Since(start).Seconds())

	c.mu.Lock()
	c.isTranslating = false
	if c.langEpoch != langE {
		c.mu.Unlock()
		logger.LogWorkflowEvent(c.log, "localize", "stale_discard", c.id, durMs, "")
		return
	}
	defer c.mu.Unlock()

	if err != nil {
		if errors.Is(err, translate.ErrRateLimited) {
			c.fallbackToBaseLocked("localize")
			logger.LogWorkflowEvent(c.log, "localize", "rate_limited", c.id, durMs, "rate_limited")
		} else {
			c.revertLanguageLocked()
			logger.LogWorkflowEvent(c.log, "localize", "error", c.id, durMs, "translation_failed")
		}
		return
	}

	overlay, ok := i18n.Overlay(translated)
	if !ok {
		c.revertLanguageLocked()
		logger.LogWorkflowEvent(c.log, "localize", "error", c.id, durMs, "shape_mismatch")
		return
	}
	c.uiStrings = overlay
	logger.LogWorkflowEvent(c.log, "localize", "success", c.id, durMs, "")
}

// translateDescription translates a base-language description into the
// target language and installs the result as the displayed text, provided
// neither the selection nor the language has moved on in the meantime. A
// rate-limit answer triggers the shared base-language fallback; a generic
// failure shows the error placeholder.
func (c *Controller) translateDescription(ctx context.Context, base, target string, sel, langE uint64) {
	start := time.Now()
	out, err := c.deps.Translator.TranslateText(ctx, base, i18n.BaseLanguage, target)
	durMs := time.Since(start).Milliseconds()
	metrics.RecordAIRequest("translate", callStatus(err))
	metrics.RecordAIRequestDuration("translate", time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selEpoch != sel || c.langEpoch != langE {
		logger.LogWorkflowEvent(c.log, "localize", "stale_discard", c.id, durMs, "")
		return
	}

	switch {
	case err == nil:
		c.descDisplayed = out
	case errors.Is(err, translate.ErrRateLimited):
		c.fallbackToBaseLocked("describe")
		logger.LogWorkflowEvent(c.log, "localize", "rate_limited", c.id, durMs, "rate_limited")
	default:
		c.descDisplayed = i18n.Default(i18n.KeyDescriptionError)
		c.notifyLocked(i18n.Default(i18n.KeyErrorTitle), "Could not translate the description.", VariantDestructive, noteDuration)
		logger.LogWorkflowEvent(c.log, "localize", "error", c.id, durMs, "translation_failed")
	}
}
