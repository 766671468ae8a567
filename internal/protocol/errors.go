package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected        = errors.New("not connected")
	ErrIdentityNotYetKnown = errors.New("identity not yet known")
	ErrMissingIdentity     = errors.New("no participant ids configured")
	ErrMissingArgument     = errors.New("missing argument")
	ErrEmptyFrame          = errors.New("empty frame")
	ErrOutOfOrder          = errors.New("command not allowed in this state")
)

// ProtocolError is a malformed or out-of-order command. The frame is dropped.
type ProtocolError struct {
	Command Command
	Err     error
}

func NewProtocolError(command Command, err error) *ProtocolError {
	return &ProtocolError{
		Command: command,
		Err:     err,
	}
}

func (e *ProtocolError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("protocol error: %s", e.Err)
	}
	return fmt.Sprintf("protocol error (%s): %s", e.Command, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ParseError is an undeserializable tree snapshot. The prior tree is retained.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TransportError is a connection level failure on a named channel.
type TransportError struct {
	Channel string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %s", e.Channel, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
