package errors

import "maps"

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the client view of an AppError. The cause is never included.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse returns the body for e tagged with requestID, which may be
// empty. Details are copied.
func (e *AppError) ToResponse(requestID string) ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Retryable,
		RequestID: requestID,
		Details:   maps.Clone(e.Details),
	}}
}
