// Package classify provides the boundary to the agricultural waste
// classification service. It defines the standard interface and result
// shape so the session controller can swap implementations (model-backed,
// mock fallback) without caring which is active.
package classify

import "context"

// Prediction is the classification service result for one image.
type Prediction struct {
	// WasteType is the predicted label. For model-backed implementations it
	// is normalized into the fixed waste vocabulary when possible.
	WasteType string `json:"wasteType"`

	// Confidence is the prediction confidence in [0,1].
	Confidence float64 `json:"confidence"`
}

// Classifier classifies an agricultural waste image.
type Classifier interface {
	// Classify analyzes the image (a data URI with embedded MIME type) and
	// returns the predicted waste type with a confidence score.
	// One attempt per call: retry policy belongs to the caller, and the
	// session contract is a single attempt per acquisition.
	Classify(ctx context.Context, imageDataURI string) (Prediction, error)

	// Name identifies the implementation (for status reporting).
	Name() string
}
