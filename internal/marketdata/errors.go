package marketdata

import "fmt"

// UpstreamError means the provider responded but signaled failure: a
// non-2xx HTTP status, a non-zero error code in the response envelope,
// or a payload missing required fields.
type UpstreamError struct {
	StatusCode int    // HTTP status of the response
	Code       int    // provider error_code, 0 if absent
	Message    string // provider error_message or a decode description
}

func (e *UpstreamError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("upstream error %d (http %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream error (http %d): %s", e.StatusCode, e.Message)
}

// TransportError means the provider was unreachable: the request never
// produced a response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
