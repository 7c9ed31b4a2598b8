package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/genai"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/waste"
)

const suggestPrompt = `You are an expert in agricultural waste classification.

The user uploaded a photo of agricultural waste and the initial classification
was %q, but they believe it is incorrect.

Based on the image, suggest alternative waste types that might be more
accurate. Only choose from this list: %s.
Only include types that are plausible given the image, most plausible first.

Return only a JSON object of the form {"suggestions": [string]}.`

// GenAISuggester implements Suggester against the shared model endpoint.
type GenAISuggester struct {
	client *genai.Client
}

// NewGenAISuggester creates a model-backed suggester.
func NewGenAISuggester(client *genai.Client) *GenAISuggester {
	return &GenAISuggester{client: client}
}

// Suggest asks the model for alternatives and filters them onto the fixed
// vocabulary, dropping the rejected initial selection and duplicates.
func (s *GenAISuggester) Suggest(ctx context.Context, imageDataURI, initialSelection string) ([]string, error) {
	prompt := fmt.Sprintf(suggestPrompt, initialSelection, strings.Join(waste.Types, ", "))

	content, err := s.client.Complete(ctx, []genai.Message{
		genai.ImageMessage(prompt, imageDataURI),
	}, true)
	if err != nil {
		return nil, fmt.Errorf("suggestion request failed: %w", err)
	}

	var result struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(genai.StripJSONFences(content)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion result: %w", err)
	}

	seen := make(map[string]bool)
	out := make([]string, 0, len(result.Suggestions))
	for _, raw := range result.Suggestions {
		canonical, ok := waste.Normalize(raw)
		if !ok || canonical == initialSelection || seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	return out, nil
}
