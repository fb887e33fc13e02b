package ai

import (
	"errors"
	"fmt"
	"net"
)

// ErrKind classifies a failed decision-service call so callers can pick
// between backing off, retrying and giving up.
type ErrKind int

const (
	KindService ErrKind = iota
	KindRateLimited
	KindTimeout
)

func (k ErrKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	default:
		return "service"
	}
}

type Error struct {
	Kind   ErrKind
	Status int
	Msg    string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("ai %s (http %d): %s", e.Kind, e.Status, e.Msg)
	}
	return fmt.Sprintf("ai %s: %s", e.Kind, e.Msg)
}

// KindOf extracts the classification from err. ok is false for errors
// that did not come out of a provider call.
func KindOf(err error) (ErrKind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return KindService, false
}

func IsRateLimited(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindRateLimited
}

// classifyTransport maps a transport-level error (client.Do) to a typed one.
func classifyTransport(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &Error{Kind: KindTimeout, Msg: err.Error()}
	}
	return &Error{Kind: KindService, Msg: err.Error()}
}

// classifyStatus maps a non-2xx HTTP status to a typed error.
func classifyStatus(status int, body []byte) error {
	if status == 429 {
		return &Error{Kind: KindRateLimited, Status: status, Msg: truncate(body)}
	}
	return &Error{Kind: KindService, Status: status, Msg: truncate(body)}
}
