package errors

import (
	"errors"
	"fmt"
	"strings"
)

// MessageSource names one place a user-facing message can be taken from.
type MessageSource string

const (
	// SourceServerMessage is the structured {message} field of a rejected response.
	SourceServerMessage MessageSource = "server_message"
	// SourceErrorMessage is the error's own description.
	SourceErrorMessage MessageSource = "error_message"
)

// TransportMessage is shown when no response reached the server.
const TransportMessage = "Server not responding. Please try again."

// DefaultFallback is used when no source yields a message.
const DefaultFallback = "Something went wrong. Please try again."

// Normalizer turns any error into exactly one user-visible message by walking
// Precedence in order and falling back to Fallback.
type Normalizer struct {
	Precedence []MessageSource
	Fallback   string
}

// ServerFirst prefers the backend's message over the error's own text.
func ServerFirst(fallback string) Normalizer {
	return Normalizer{
		Precedence: []MessageSource{SourceServerMessage, SourceErrorMessage},
		Fallback:   fallback,
	}
}

// ErrorFirst prefers the error's own text over the backend's message.
func ErrorFirst(fallback string) Normalizer {
	return Normalizer{
		Precedence: []MessageSource{SourceErrorMessage, SourceServerMessage},
		Fallback:   fallback,
	}
}

// ParsePrecedence reads a comma separated list such as "server_message,error_message".
func ParsePrecedence(raw string) ([]MessageSource, error) {
	var out []MessageSource
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch MessageSource(part) {
		case SourceServerMessage, SourceErrorMessage:
			out = append(out, MessageSource(part))
		default:
			return nil, fmt.Errorf("unknown message source %q", part)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("message precedence is empty")
	}
	return out, nil
}

// Message returns the user-visible text for err. A nil error yields "".
func (n Normalizer) Message(err error) string {
	if err == nil {
		return ""
	}
	for _, src := range n.Precedence {
		var msg string
		switch src {
		case SourceServerMessage:
			msg = ServerMessage(err)
		case SourceErrorMessage:
			msg = n.errorMessage(err)
		}
		if msg != "" {
			return msg
		}
	}
	if n.Fallback != "" {
		return n.Fallback
	}
	return DefaultFallback
}

// ServerMessage extracts the backend-supplied message, if any.
func ServerMessage(err error) string {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) || stdErr.Code != ErrCodeServerRejected {
		return ""
	}
	if msg, ok := stdErr.Metadata["serverMessage"].(string); ok {
		return msg
	}
	return ""
}

// errorMessage mirrors an HTTP client's error text. A rejection whose body
// carried no message uses Fallback when one is configured, and the status
// line otherwise.
func (n Normalizer) errorMessage(err error) string {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) {
		return err.Error()
	}
	switch stdErr.Code {
	case ErrCodeTransportFailure:
		return TransportMessage
	case ErrCodeServerRejected:
		if ServerMessage(err) == "" && n.Fallback != "" {
			return n.Fallback
		}
		return fmt.Sprintf("Request failed with status code %d", stdErr.Status)
	default:
		return stdErr.Message
	}
}
