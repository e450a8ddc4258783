package handler

import (
	"errors"
	"fmt"

	"github.com/voyage-finance/voyage-llm-forwarder/service"
)

// BadInputError reports an event whose body is missing, malformed or incomplete.
type BadInputError struct {
	Reason string
}

func (e *BadInputError) Error() string {
	return "invalid request: " + e.Reason
}

// UnexpectedFault wraps a panic recovered at the handler boundary.
type UnexpectedFault struct {
	Value interface{}
}

func (e *UnexpectedFault) Error() string {
	return fmt.Sprintf("unexpected fault: %v", e.Value)
}

// Kind names the failure class of err for diagnostics.
func Kind(err error) string {
	var (
		bad      *BadInputError
		remote   *service.RemoteServiceError
		protocol *service.RemoteProtocolError
	)
	switch {
	case errors.As(err, &bad):
		return "bad_input"
	case errors.As(err, &remote):
		return "remote_service"
	case errors.As(err, &protocol):
		return "remote_protocol"
	default:
		return "unexpected"
	}
}
