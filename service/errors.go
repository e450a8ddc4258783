package service

import "fmt"

// RemoteServiceError reports a generation call that failed at the transport level
// (StatusCode == 0) or returned a non-200 status.
type RemoteServiceError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *RemoteServiceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("Could not connect to the inference server: %v", e.Err)
	}
	return fmt.Sprintf("Inference server error: %s", e.Detail)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// Connection reports whether the endpoint could not be reached at all.
func (e *RemoteServiceError) Connection() bool { return e.StatusCode == 0 }

// RemoteProtocolError reports a 200 response that does not honour the success contract.
type RemoteProtocolError struct {
	Reason string
}

func (e *RemoteProtocolError) Error() string {
	if e.Reason == "" {
		return "Inference server did not return generated text."
	}
	return "Inference server did not return generated text: " + e.Reason
}
