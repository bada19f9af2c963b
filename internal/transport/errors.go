package transport

import (
	"errors"
	"fmt"
)

// ErrListenerClosed is returned by Serve once the listener has been stopped
var ErrListenerClosed = errors.New("listener closed")

// BindError reports a port the listener could not acquire
type BindError struct {
	Port int
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind udp port %d: %v", e.Port, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// TransportError reports a send that did not leave the local socket
type TransportError struct {
	Op   string
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
