package transport

import (
	"errors"

	"github.com/SammMarshall/samsbet/pkg/protocol"
)

// Transport defines the interface for communication methods
type Transport interface {
	ReadRequest() (*protocol.JsonRpcRequest, error)
	WriteResponse(*protocol.JsonRpcResponse) error
}

// ParseError is returned by ReadRequest when a complete message was read but
// was not a valid request. The stream is still usable afterwards.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return "invalid request: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err came from a malformed message
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
