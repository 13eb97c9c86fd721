package capture

import (
	"errors"
	"strings"
)

// State identifies where a capture session is in its lifecycle.
type State string

const (
	StateIdle           State = "idle"
	StateCountingDown   State = "counting_down"
	StateCaptured       State = "captured"
	StateProcessing     State = "processing"
	StateRevealing      State = "revealing"
	StateMinimumDisplay State = "minimum_display"
	StateReadyForNext   State = "ready_for_next"
	StateError          State = "error"
)

// ErrSessionActive is returned when a capture trigger arrives while a
// session is already running. Triggers are rejected, never queued.
var ErrSessionActive = errors.New("capture session already active")

// ErrorCategory classifies a capture failure for the display surface.
type ErrorCategory string

const (
	CategoryNetwork   ErrorCategory = "network"
	CategoryCamera    ErrorCategory = "camera"
	CategoryAIService ErrorCategory = "ai_service"
	CategoryTimeout   ErrorCategory = "timeout"
	CategoryGeneric   ErrorCategory = "generic"
)

// CategoryFromString maps a collaborator-reported failure category onto a
// known one. Unknown values collapse to generic.
func CategoryFromString(value string) ErrorCategory {
	switch c := ErrorCategory(strings.ToLower(strings.TrimSpace(value))); c {
	case CategoryNetwork, CategoryCamera, CategoryAIService, CategoryTimeout:
		return c
	default:
		return CategoryGeneric
	}
}

// FriendlyMessage returns the operator-facing text for a failure category.
// Technical detail stays in the logs.
func (c ErrorCategory) FriendlyMessage() string {
	switch c {
	case CategoryNetwork:
		return "Network connection lost. Please try again."
	case CategoryCamera:
		return "Camera is not responding. Please try again."
	case CategoryAIService:
		return "Photo styling is temporarily unavailable. Please try again."
	case CategoryTimeout:
		return "That took too long. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

// Snapshot is an immutable view of the machine, published on every
// transition.
type Snapshot struct {
	State                   State         `json:"state"`
	SessionID               string        `json:"session_id,omitempty"`
	Theme                   string        `json:"theme,omitempty"`
	CountdownRemaining      int           `json:"countdown_remaining,omitempty"`
	MinimumDisplayRemaining int           `json:"minimum_display_remaining,omitempty"`
	ErrorMessage            string        `json:"error_message,omitempty"`
	ErrorCategory           ErrorCategory `json:"error_category,omitempty"`
}
