package routeros

import (
	"errors"
	"fmt"
)

var (
	ErrAddressRequired     = errors.New("routeros: address required")
	ErrUsernameRequired    = errors.New("routeros: username required")
	ErrTLSRequired         = errors.New("routeros: mutual tls requires tls enabled")
	ErrTLSCertFileRequired = errors.New("routeros: tls cert file required")
	ErrTLSKeyFileRequired  = errors.New("routeros: tls key file required")

	ErrConnectFailed    = errors.New("routeros: connect failed")
	ErrAuthFailed       = errors.New("routeros: authentication failed")
	ErrCommandFailed    = errors.New("routeros: command failed")
	ErrNotReady         = errors.New("routeros: session not ready")
	ErrAlreadyConnected = errors.New("routeros: session already connected")
	ErrEmptyCommand     = errors.New("routeros: empty command")
)

// TrapError is a command-level failure reported by the device. The
// session survives it and stays usable.
type TrapError struct {
	Command string
	Message string
}

func (e *TrapError) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("routeros: trap: %s", e.Message)
	}
	return fmt.Sprintf("routeros: trap: %s: %s", e.Command, e.Message)
}

// Is matches ErrCommandFailed so callers can classify traps without
// the concrete type.
func (e *TrapError) Is(target error) bool { return target == ErrCommandFailed }

// FatalError is a session-ending failure reported by the device. The
// session is already closed by the time a caller sees one.
type FatalError struct {
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("routeros: fatal: %s", e.Message)
}
