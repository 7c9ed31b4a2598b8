// Package suggest provides the boundary that proposes alternative waste
// types when the user rejects a classification. Suggestions only reorder
// the fixed waste vocabulary; they never introduce new labels.
package suggest

import "context"

// Suggester proposes plausible alternatives for a rejected classification.
type Suggester interface {
	// Suggest analyzes the image together with the initially selected waste
	// type and returns alternative labels from the fixed vocabulary, most
	// plausible first. An empty slice is a valid answer.
	Suggest(ctx context.Context, imageDataURI, initialSelection string) ([]string, error)
}

// SuggesterFunc adapts a function to the Suggester interface.
type SuggesterFunc func(ctx context.Context, imageDataURI, initialSelection string) ([]string, error)

// Suggest calls f.
func (f SuggesterFunc) Suggest(ctx context.Context, imageDataURI, initialSelection string) ([]string, error) {
	return f(ctx, imageDataURI, initialSelection)
}
