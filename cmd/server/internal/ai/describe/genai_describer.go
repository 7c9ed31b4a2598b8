package describe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/genai"
)

const describePrompt = `Provide a short, informative description (1-2 sentences) for the following agricultural waste type: %q. Focus on its common sources or uses.

Return only a JSON object of the form {"description": string}.`

// GenAIDescriber implements Describer against the shared model endpoint.
type GenAIDescriber struct {
	client *genai.Client
}

// NewGenAIDescriber creates a model-backed describer.
func NewGenAIDescriber(client *genai.Client) *GenAIDescriber {
	return &GenAIDescriber{client: client}
}

// Describe fetches a base-language description for the waste type.
func (d *GenAIDescriber) Describe(ctx context.Context, wasteType string) (string, error) {
	content, err := d.client.Complete(ctx, []genai.Message{
		genai.TextMessage("user", fmt.Sprintf(describePrompt, wasteType)),
	}, true)
	if err != nil {
		return "", fmt.Errorf("description request failed: %w", err)
	}

	var result struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(genai.StripJSONFences(content)), &result); err != nil {
		return "", fmt.Errorf("failed to parse description result: %w", err)
	}
	if result.Description == "" {
		return "", fmt.Errorf("description result is empty")
	}

	return result.Description, nil
}
