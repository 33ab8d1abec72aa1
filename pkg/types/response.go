// Package types holds the JSON envelopes shared by every endpoint.
package types

// SuccessEnvelope wraps a successful payload. Warnings carry non-fatal
// conditions, such as a receipt total that disagrees with its lines.
type SuccessEnvelope struct {
	Data     any      `json:"data"`
	Warnings []string `json:"warnings,omitempty"`
}

// APIError is the client-facing part of a failure. RequestID echoes the
// X-Request-Id response header so a cashier can quote it.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewErrorEnvelope builds the failure body for code and message.
func NewErrorEnvelope(code, message, requestID string) ErrorEnvelope {
	return ErrorEnvelope{Error: APIError{Code: code, Message: message, RequestID: requestID}}
}
