package classify

import (
	"context"
	"errors"
	"log/slog"
)

// ErrClassifierUnavailable is returned by MockClassifier for every call.
// The session controller surfaces it as a classification error; the user
// re-acquires once the real service is back.
var ErrClassifierUnavailable = errors.New("classification service unavailable")

// MockClassifier is the degraded-mode Classifier used when no model
// endpoint is configured. Unlike a silent stub it fails every call with a
// recognizable error, because an invented prediction would poison the
// description workflow downstream.
type MockClassifier struct {
	logger *slog.Logger
}

// NewMockClassifier creates a MockClassifier.
func NewMockClassifier(logger *slog.Logger) *MockClassifier {
	return &MockClassifier{logger: logger}
}

// Name identifies the implementation.
func (m *MockClassifier) Name() string { return "mock" }

// Classify always fails with ErrClassifierUnavailable and logs a warning
// so operators can see degraded-mode traffic.
func (m *MockClassifier) Classify(ctx context.Context, imageDataURI string) (Prediction, error) {
	if m.logger != nil {
		m.logger.Warn("MockClassifier: classify called in degraded mode")
	}
	return Prediction{}, ErrClassifierUnavailable
}
