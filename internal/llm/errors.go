package llm

import "errors"

var (
	// ErrUnavailable indicates the model server is unreachable.
	ErrUnavailable = errors.New("llm server unavailable")

	// ErrTimeout indicates the LLM request exceeded the configured timeout.
	ErrTimeout = errors.New("llm request timed out")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("llm retry attempts exhausted")

	// ErrSessionNotFound indicates a turn was sent on an unknown session handle.
	ErrSessionNotFound = errors.New("llm session not found")

	// ErrEmptyResponse indicates the model answered with no content.
	ErrEmptyResponse = errors.New("llm returned an empty response")
)
