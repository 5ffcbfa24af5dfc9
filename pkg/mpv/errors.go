package mpv

import (
	"errors"
	"fmt"

	"github.com/cromfel/go-mpv/internal/libmpv"
)

// ErrorCode is a status code reported by the engine, passed through with its
// numeric value unchanged. Negative values are failures and implement error;
// zero (success) is never surfaced as an error.
type ErrorCode int32

const (
	ErrEventQueueFull      = ErrorCode(libmpv.ErrorEventQueueFull)
	ErrNomem               = ErrorCode(libmpv.ErrorNomem)
	ErrUninitialized       = ErrorCode(libmpv.ErrorUninitialized)
	ErrInvalidParameter    = ErrorCode(libmpv.ErrorInvalidParameter)
	ErrOptionNotFound      = ErrorCode(libmpv.ErrorOptionNotFound)
	ErrOptionFormat        = ErrorCode(libmpv.ErrorOptionFormat)
	ErrOption              = ErrorCode(libmpv.ErrorOption)
	ErrPropertyNotFound    = ErrorCode(libmpv.ErrorPropertyNotFound)
	ErrPropertyFormat      = ErrorCode(libmpv.ErrorPropertyFormat)
	ErrPropertyUnavailable = ErrorCode(libmpv.ErrorPropertyUnavailable)
	ErrProperty            = ErrorCode(libmpv.ErrorProperty)
	ErrCommand             = ErrorCode(libmpv.ErrorCommand)
	ErrLoadingFailed       = ErrorCode(libmpv.ErrorLoadingFailed)
	ErrAOInitFailed        = ErrorCode(libmpv.ErrorAOInitFailed)
	ErrVOInitFailed        = ErrorCode(libmpv.ErrorVOInitFailed)
	ErrNothingToPlay       = ErrorCode(libmpv.ErrorNothingToPlay)
	ErrUnknownFormat       = ErrorCode(libmpv.ErrorUnknownFormat)
	ErrUnsupported         = ErrorCode(libmpv.ErrorUnsupported)
	ErrNotImplemented      = ErrorCode(libmpv.ErrorNotImplemented)
	ErrGeneric             = ErrorCode(libmpv.ErrorGeneric)
)

var errorCodeText = map[ErrorCode]string{
	ErrEventQueueFull:      "event queue full",
	ErrNomem:               "memory allocation failed",
	ErrUninitialized:       "handle not initialized",
	ErrInvalidParameter:    "invalid parameter",
	ErrOptionNotFound:      "option not found",
	ErrOptionFormat:        "unsupported option format",
	ErrOption:              "setting option failed",
	ErrPropertyNotFound:    "property not found",
	ErrPropertyFormat:      "unsupported property format",
	ErrPropertyUnavailable: "property unavailable",
	ErrProperty:            "accessing property failed",
	ErrCommand:             "command failed",
	ErrLoadingFailed:       "loading failed",
	ErrAOInitFailed:        "audio output init failed",
	ErrVOInitFailed:        "video output init failed",
	ErrNothingToPlay:       "no audio or video to play",
	ErrUnknownFormat:       "unknown file format",
	ErrUnsupported:         "operation not supported",
	ErrNotImplemented:      "not implemented",
	ErrGeneric:             "generic error",
}

func (e ErrorCode) Error() string {
	if text, ok := errorCodeText[e]; ok {
		return "mpv: " + text
	}
	return fmt.Sprintf("mpv: error code %d", int32(e))
}

// errorFor maps a raw engine status to an error. Non-negative statuses are
// success and yield nil.
func errorFor(status int32) error {
	if status >= 0 {
		return nil
	}
	return ErrorCode(status)
}

// Failures raised by the bindings themselves. These are deliberately
// distinct from ErrorCode values so that local problems are never mistaken
// for engine statuses.
var (
	ErrClientClosed      = errors.New("mpv: client is closed")
	ErrCreateFailed      = errors.New("mpv: engine refused to create a handle")
	ErrInvalidName       = errors.New("mpv: invalid protocol name")
	ErrMissingCallback   = errors.New("mpv: open, close, and read callbacks are required")
	ErrAlreadyRegistered = errors.New("mpv: protocol is already registered")
)

// VersionMismatchError is returned when the loaded library reports a client
// API major version other than the one these bindings target.
type VersionMismatchError struct {
	Linked uint64 // version the bindings target, packed major<<16|minor
	Loaded uint64 // version the shared library reports
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("mpv: client API version mismatch: bindings target %d.x, library reports %d.%d",
		e.Linked>>16, e.Loaded>>16, e.Loaded&0xffff)
}
