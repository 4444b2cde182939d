package domain

import "time"

// Alert is a structured notification handed to the alert sink.
type Alert struct {
	Kind      string            `json:"kind"`
	Severity  Severity          `json:"severity"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
