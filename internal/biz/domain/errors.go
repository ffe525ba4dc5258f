package domain

import "errors"

var (
	// ErrConfigIncomplete means the gate lacks a provider or a whitelist and stays inactive
	ErrConfigIncomplete = errors.New("gate config incomplete")

	ErrClassifierTimeout   = errors.New("classifier timeout")
	ErrClassifierTransport = errors.New("classifier transport error")
	ErrClassifierMalformed = errors.New("classifier malformed response")

	// ErrProviderNotFound is reported by the model repository for unknown provider IDs
	ErrProviderNotFound = errors.New("provider not found")

	// ErrEmptyText means nothing is left of a message after normalization
	ErrEmptyText = errors.New("text is empty")
)

// CauseName maps an error to its taxonomy name for logs and the audit log
func CauseName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigIncomplete):
		return "config_incomplete"
	case errors.Is(err, ErrClassifierTimeout):
		return "classifier_timeout"
	case errors.Is(err, ErrClassifierMalformed):
		return "classifier_malformed_response"
	case errors.Is(err, ErrClassifierTransport):
		return "classifier_transport_error"
	default:
		return "unknown"
	}
}
