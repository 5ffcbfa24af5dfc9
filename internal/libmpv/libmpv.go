// Package libmpv loads the mpv client library at runtime and exposes its C
// entry points as plain Go function variables. No cgo is involved; symbols
// are resolved with purego. Higher layers (pkg/mpv) own all type conversion
// and error mapping — this package stays at the ABI level.
//
// The function variables are exported so tests can swap them for fakes
// without a library present. Production code must call Load before touching
// any of them.
package libmpv

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

var (
	libHandle uintptr
	libOnce   sync.Once
	libErr    error
	libPath   string
)

// Library entry points, populated by Load. Pointer-typed C parameters
// (strings, handles, out-params) travel as uintptr; the caller is
// responsible for keeping the referenced memory alive across the call.
var (
	// Handle lifecycle
	ClientAPIVersion func() uint64
	ClientName       func(handle uintptr) uintptr
	ErrorString      func(code int32) uintptr
	Free             func(ptr uintptr)
	Create           func() uintptr
	Initialize       func(handle uintptr) int32
	TerminateDestroy func(handle uintptr)

	// Commands, options, properties
	Command           func(handle uintptr, args uintptr) int32
	CommandString     func(handle uintptr, args uintptr) int32
	SetOptionString   func(handle uintptr, name uintptr, data uintptr) int32
	SetProperty       func(handle uintptr, name uintptr, format int32, data uintptr) int32
	SetPropertyString func(handle uintptr, name uintptr, data uintptr) int32
	GetProperty       func(handle uintptr, name uintptr, format int32, data uintptr) int32
	LoadConfigFile    func(handle uintptr, filename uintptr) int32

	// Events
	ObserveProperty    func(handle uintptr, replyUserdata uint64, name uintptr, format int32) int32
	UnobserveProperty  func(handle uintptr, replyUserdata uint64) int32
	RequestLogMessages func(handle uintptr, minLevel uintptr) int32
	WaitEvent          func(handle uintptr, timeout float64) uintptr
	Wakeup             func(handle uintptr)
	GetTimeUS          func(handle uintptr) int64

	// Custom stream protocols
	StreamCbAddRo func(handle uintptr, protocol uintptr, userData uintptr, openFn uintptr) int32
)

// Load resolves the mpv shared library and registers every entry point.
// Safe to call repeatedly; only the first call does work and later calls
// return its result.
func Load() error {
	libOnce.Do(func() {
		var lastErr error
		for _, candidate := range libraryCandidates() {
			handle, err := purego.Dlopen(candidate, purego.RTLD_NOW|purego.RTLD_GLOBAL)
			if err != nil {
				lastErr = err
				continue
			}
			libHandle = handle
			libPath = candidate
			break
		}
		if libHandle == 0 {
			libErr = fmt.Errorf("libmpv not found (set MPV_LIBRARY_PATH to override): %w", lastErr)
			return
		}

		registerHandleFuncs()
		registerPropertyFuncs()
		registerEventFuncs()
		registerStreamFuncs()
	})
	return libErr
}

// Loaded reports whether Load has completed successfully.
func Loaded() bool {
	return libHandle != 0
}

// LibraryPath returns the name or path the library was loaded from. Empty
// until Load succeeds.
func LibraryPath() string {
	return libPath
}

// libraryCandidates returns dlopen candidates in preference order. An
// explicit MPV_LIBRARY_PATH wins outright; otherwise versioned sonames are
// tried before the unversioned development symlink.
func libraryCandidates() []string {
	if path := os.Getenv("MPV_LIBRARY_PATH"); path != "" {
		return []string{path}
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"libmpv.2.dylib",
			"libmpv.dylib",
			"/opt/homebrew/lib/libmpv.dylib",
			"/usr/local/lib/libmpv.dylib",
		}
	default:
		return []string{
			"libmpv.so.2",
			"libmpv.so.1",
			"libmpv.so",
		}
	}
}

func registerHandleFuncs() {
	purego.RegisterLibFunc(&ClientAPIVersion, libHandle, "mpv_client_api_version")
	purego.RegisterLibFunc(&ClientName, libHandle, "mpv_client_name")
	purego.RegisterLibFunc(&ErrorString, libHandle, "mpv_error_string")
	purego.RegisterLibFunc(&Free, libHandle, "mpv_free")
	purego.RegisterLibFunc(&Create, libHandle, "mpv_create")
	purego.RegisterLibFunc(&Initialize, libHandle, "mpv_initialize")
	purego.RegisterLibFunc(&TerminateDestroy, libHandle, "mpv_terminate_destroy")
}

func registerPropertyFuncs() {
	purego.RegisterLibFunc(&Command, libHandle, "mpv_command")
	purego.RegisterLibFunc(&CommandString, libHandle, "mpv_command_string")
	purego.RegisterLibFunc(&SetOptionString, libHandle, "mpv_set_option_string")
	purego.RegisterLibFunc(&SetProperty, libHandle, "mpv_set_property")
	purego.RegisterLibFunc(&SetPropertyString, libHandle, "mpv_set_property_string")
	purego.RegisterLibFunc(&GetProperty, libHandle, "mpv_get_property")
	purego.RegisterLibFunc(&LoadConfigFile, libHandle, "mpv_load_config_file")
}

func registerEventFuncs() {
	purego.RegisterLibFunc(&ObserveProperty, libHandle, "mpv_observe_property")
	purego.RegisterLibFunc(&UnobserveProperty, libHandle, "mpv_unobserve_property")
	purego.RegisterLibFunc(&RequestLogMessages, libHandle, "mpv_request_log_messages")
	purego.RegisterLibFunc(&WaitEvent, libHandle, "mpv_wait_event")
	purego.RegisterLibFunc(&Wakeup, libHandle, "mpv_wakeup")
	purego.RegisterLibFunc(&GetTimeUS, libHandle, "mpv_get_time_us")
}

func registerStreamFuncs() {
	purego.RegisterLibFunc(&StreamCbAddRo, libHandle, "mpv_stream_cb_add_ro")
}
