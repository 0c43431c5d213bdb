package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a dispatch failure into one of the JSON-RPC
// error families the protocol layer reports.
type ErrorKind int

const (
	// InvalidParams marks arguments that failed schema or semantic validation.
	InvalidParams ErrorKind = iota
	// MethodNotFound marks a tool name with no registration.
	MethodNotFound
	// Internal marks upstream API failures and everything else unexpected.
	Internal
)

// Code returns the JSON-RPC error code for the kind.
func (k ErrorKind) Code() int {
	switch k {
	case InvalidParams:
		return -32602
	case MethodNotFound:
		return -32601
	default:
		return -32603
	}
}

func (k ErrorKind) String() string {
	switch k {
	case InvalidParams:
		return "invalid params"
	case MethodNotFound:
		return "method not found"
	default:
		return "internal error"
	}
}

// Error is the only error shape that crosses the dispatch boundary.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// InvalidParamsf builds a validation error from a format string.
func InvalidParamsf(format string, args ...any) *Error {
	return &Error{Kind: InvalidParams, Message: fmt.Sprintf(format, args...)}
}

// MethodNotFoundf builds an unknown-tool error from a format string.
func MethodNotFoundf(format string, args ...any) *Error {
	return &Error{Kind: MethodNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internalf builds an internal error from a format string.
func Internalf(format string, args ...any) *Error {
	return &Error{Kind: Internal, Message: fmt.Sprintf(format, args...)}
}

// Normalize maps an arbitrary handler error onto the taxonomy. An error
// that already is a *Error passes through unchanged; anything else is
// wrapped as an internal error naming the tool that failed.
func Normalize(tool string, err error) *Error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return Internalf("%s failed: %v", tool, err)
}
