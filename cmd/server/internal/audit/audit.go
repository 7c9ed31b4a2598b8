// Package audit records every classification attempt to a rotating JSON
// log, so misclassification reports from the field can be traced back to
// what the model actually returned.
package audit

import (
	"encoding/json"
	"log"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes classification audit records with automatic rotation.
type Logger struct {
	logger *log.Logger
}

// NewLogger creates a Logger rotating at logPath by size and age.
func NewLogger(logPath string) *Logger {
	writer := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    100, // MB
		MaxBackups: 10,
		MaxAge:     30, // days
		Compress:   true,
	}

	return &Logger{
		logger: log.New(writer, "", 0), // records carry their own timestamp
	}
}

// RecordClassification logs one classification attempt, successful or not.
// outcome is "success" or "error".
func (a *Logger) RecordClassification(sessionID, wasteType string, confidence float64, durationMs int64, outcome string) {
	record := map[string]interface{}{
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"session_id":  sessionID,
		"result":      outcome,
		"duration_ms": durationMs,
	}
	if wasteType != "" {
		record["waste_type"] = wasteType
		record["confidence"] = confidence
	}

	data, _ := json.Marshal(record)
	a.logger.Println(string(data))
}

// RecordCorrection logs a manual override, pairing the model's answer with
// the user's.
func (a *Logger) RecordCorrection(sessionID, predicted, selected string) {
	record := map[string]interface{}{
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"session_id": sessionID,
		"result":     "corrected",
		"predicted":  predicted,
		"selected":   selected,
	}

	data, _ := json.Marshal(record)
	a.logger.Println(string(data))
}
