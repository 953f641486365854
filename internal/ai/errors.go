package ai

import (
	"errors"
	"fmt"
)

var (
	ErrToolNotFound    = errors.New("tool not found")
	ErrDuplicateTool   = errors.New("tool already registered")
	ErrRegistrySealed  = errors.New("tool registry sealed")
	ErrPresetNotFound  = errors.New("preset not found")
	ErrInvalidConfig   = errors.New("invalid model config")
	ErrEmptyToolResult = errors.New("tool returned empty result")
)

// ErrorType for errors classification
type ErrorType string

const (
	ErrorTypeMediaTooLarge       ErrorType = "media_too_large"
	ErrorTypeBackendUnavailable  ErrorType = "backend_unavailable"
	ErrorTypeMalformedResponse   ErrorType = "malformed_response"
	ErrorTypeBlocked             ErrorType = "blocked"
	ErrorTypeToolExecutionFailed ErrorType = "tool_execution_failed"
	ErrorTypeUnknownTool         ErrorType = "unknown_tool"
	ErrorTypeTurnCeiling         ErrorType = "turn_ceiling_exceeded"
	ErrorTypeProcessingTimeout   ErrorType = "processing_timeout"
	ErrorTypeUnknown             ErrorType = "unknown"
)

type AIError struct {
	// Type is the failure classification
	Type ErrorType `json:"type"`
	// ModelName is the model name where the error occurred
	ModelName string `json:"model_name"`
	// Message is a human-readable error message
	Message string `json:"message"`
	// OriginalErr is the original error (if any)
	OriginalErr error `json:"-"`
}

func NewError(errType ErrorType, message string, err error) *AIError {
	return &AIError{Type: errType, Message: message, OriginalErr: err}
}

func (e *AIError) WithModel(model string) *AIError {
	e.ModelName = model
	return e
}

// Error implements the error interface
func (e *AIError) Error() string {
	msg := e.Message
	if msg == "" && e.OriginalErr != nil {
		msg = e.OriginalErr.Error()
	} else if e.OriginalErr != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.OriginalErr)
	}
	if e.ModelName != "" {
		msg = fmt.Sprintf("[%s] %s", e.ModelName, msg)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap for compatibility with errors.Is and errors.As
func (e *AIError) Unwrap() error {
	return e.OriginalErr
}

func (e *AIError) ErrorType() ErrorType {
	if e.Type == "" {
		return ErrorTypeUnknown
	}
	return e.Type
}

// IsRetryable reports whether the same request may succeed if sent again.
func (e *AIError) IsRetryable() bool {
	switch e.ErrorType() {
	case ErrorTypeBackendUnavailable, ErrorTypeProcessingTimeout, ErrorTypeTurnCeiling:
		return true
	default:
		return false
	}
}

// Helper functions for error analysis

func IsRetryableError(err error) bool {
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr.IsRetryable()
	}
	return false
}

func GetErrorType(err error) ErrorType {
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr.ErrorType()
	}
	return ErrorTypeUnknown
}

func IsErrorType(err error, errType ErrorType) bool {
	return GetErrorType(err) == errType
}

// ensureAIError wraps foreign errors so callers can always classify them.
func ensureAIError(err error, fallback ErrorType, model string) error {
	if err == nil {
		return nil
	}
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		if aiErr.ModelName == "" {
			aiErr.ModelName = model
		}
		return err
	}
	return NewError(fallback, "", err).WithModel(model)
}
