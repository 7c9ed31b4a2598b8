// Package translate provides the boundary to the translation service.
//
// The boundary reports failure through two sentinel discriminators instead
// of error-message matching: ErrRateLimited for quota exhaustion (callers
// fall back to the base language) and ErrBadShape for responses that do not
// preserve the request shape (treated as a generic translation failure).
package translate

import (
	"context"
	"errors"
)

var (
	// ErrRateLimited indicates the translation service rejected the request
	// for quota reasons. Workflows respond by reverting the active language
	// to the base language and restoring base-language text.
	ErrRateLimited = errors.New("translation rate limited")

	// ErrBadShape indicates a batch response whose length or form does not
	// match the request. Shape preservation is part of the contract: array
	// in, array out, same length and order.
	ErrBadShape = errors.New("translation response shape mismatch")
)

// Translator converts base-language text into a target language.
type Translator interface {
	// TranslateText translates a single string. sourceLang may be empty.
	TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// TranslateBatch translates an ordered list of strings and returns an
	// equal-length list in the same order. sourceLang may be empty.
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
}
