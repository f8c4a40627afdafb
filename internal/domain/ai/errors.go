package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

var (
	// ErrAuthenticationFailed means the provider rejected the credentials.
	ErrAuthenticationFailed = errors.New("ai authentication failed")
	// ErrInvalidRequest means the provider rejected the request parameters.
	ErrInvalidRequest = errors.New("ai invalid request")
	// ErrProviderUnavailable covers 5xx responses, timeouts and transport errors.
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	// ErrNoProviderConfigured means neither provider has credentials.
	ErrNoProviderConfigured = errors.New("no ai provider configured")
	// ErrMalformedResponse means the model answered with something that is not the expected JSON.
	ErrMalformedResponse = errors.New("ai malformed response")
)
