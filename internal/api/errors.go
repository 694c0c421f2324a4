package api

import (
	"errors"
	"fmt"
)

// TransportError indicates the server could not be reached or answered
// outside the protocol: network failure, non-2xx status, or a body that is
// not valid JSON. Always recoverable; the caller resets to its last stable
// state and surfaces the message.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected HTTP status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError indicates the server answered well-formed JSON but reported
// failure (status != success). The server message passes through verbatim.
type ProtocolError struct {
	Op      string
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: server reported failure", e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// UserMessage returns the text to surface in a notification: the server's
// own message for protocol failures, a generic retry hint otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *ProtocolError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}
