package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agrisaathi/agriwaste/cmd/server/internal/ai/genai"
	"github.com/agrisaathi/agriwaste/cmd/server/internal/waste"
)

// classifyPrompt instructs the model to pick from the fixed vocabulary and
// answer as a bare JSON object.
const classifyPrompt = `You are an expert in agricultural waste classification.

Analyze the provided image of agricultural waste and determine the type of waste.
Choose the waste type from this list: %s.

Return only a JSON object of the form {"wasteType": string, "confidence": number}
where confidence is between 0 and 1.`

// GenAIClassifier implements Classifier against the shared model endpoint.
type GenAIClassifier struct {
	client *genai.Client
}

// NewGenAIClassifier creates a model-backed classifier.
func NewGenAIClassifier(client *genai.Client) *GenAIClassifier {
	return &GenAIClassifier{client: client}
}

// Name identifies the implementation.
func (c *GenAIClassifier) Name() string { return "genai" }

// Classify sends the image to the model and parses the structured reply.
func (c *GenAIClassifier) Classify(ctx context.Context, imageDataURI string) (Prediction, error) {
	prompt := fmt.Sprintf(classifyPrompt, strings.Join(waste.Types, ", "))

	content, err := c.client.Complete(ctx, []genai.Message{
		genai.ImageMessage(prompt, imageDataURI),
	}, true)
	if err != nil {
		return Prediction{}, fmt.Errorf("classification request failed: %w", err)
	}

	var pred Prediction
	if err := json.Unmarshal([]byte(genai.StripJSONFences(content)), &pred); err != nil {
		return Prediction{}, fmt.Errorf("failed to parse classification result: %w", err)
	}

	if pred.WasteType == "" {
		return Prediction{}, fmt.Errorf("classification result has no waste type")
	}

	// Snap free-form model output onto the fixed vocabulary when it matches
	// up to casing; otherwise keep the raw label so the caller can decide.
	if canonical, ok := waste.Normalize(pred.WasteType); ok {
		pred.WasteType = canonical
	}

	// Clamp out-of-range confidence rather than failing the whole attempt.
	if pred.Confidence < 0 {
		pred.Confidence = 0
	}
	if pred.Confidence > 1 {
		pred.Confidence = 1
	}

	return pred, nil
}
