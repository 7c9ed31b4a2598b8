package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/genai"
)

const (
	singlePrompt = `Translate the following text%s to %s.
Return only the translated text. Do not add any explanations.
Input Text: %q`

	batchPrompt = `Translate the following texts%s to %s.
Input is a JSON array of strings. Translate each text individually and
return the results only as a JSON array of strings, maintaining the
original order and length. Do not add explanations or markdown formatting.
Input JSON Array:
%s`
)

// GenAITranslator implements Translator against the shared model endpoint.
type GenAITranslator struct {
	client *genai.Client
}

// NewGenAITranslator creates a model-backed translator.
func NewGenAITranslator(client *genai.Client) *GenAITranslator {
	return &GenAITranslator{client: client}
}

func fromClause(sourceLang string) string {
	if sourceLang == "" {
		return ""
	}
	return " from " + sourceLang
}

// TranslateText translates one string.
func (t *GenAITranslator) TranslateText(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	prompt := fmt.Sprintf(singlePrompt, fromClause(sourceLang), targetLang, text)

	content, err := t.client.Complete(ctx, []genai.Message{genai.TextMessage("user", prompt)}, false)
	if err != nil {
		return "", mapErr(err)
	}

	translated := strings.TrimSpace(content)
	if translated == "" {
		return "", fmt.Errorf("%w: empty single-text response", ErrBadShape)
	}
	return translated, nil
}

// TranslateBatch translates an ordered list of strings in one request and
// enforces the shape-preservation contract on the response.
func (t *GenAITranslator) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	encoded, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}
	prompt := fmt.Sprintf(batchPrompt, fromClause(sourceLang), targetLang, encoded)

	content, err := t.client.Complete(ctx, []genai.Message{genai.TextMessage("user", prompt)}, false)
	if err != nil {
		return nil, mapErr(err)
	}

	var translated []string
	if err := json.Unmarshal([]byte(genai.StripJSONFences(content)), &translated); err != nil {
		return nil, fmt.Errorf("%w: response is not a JSON string array: %v", ErrBadShape, err)
	}
	if len(translated) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d texts, received %d", ErrBadShape, len(texts), len(translated))
	}

	return translated, nil
}

// mapErr lifts transport-level discriminators into the boundary sentinels.
func mapErr(err error) error {
	if errors.Is(err, genai.ErrRateLimited) {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return fmt.Errorf("translation request failed: %w", err)
}
