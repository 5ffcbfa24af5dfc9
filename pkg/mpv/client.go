// Package mpv provides bindings to the libmpv playback engine, loaded at
// runtime without cgo. A Client wraps one engine handle; custom stream
// protocols (Protocol) let applications serve media bytes to the engine
// through Go callbacks registered under their own URI scheme.
package mpv

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/cromfel/go-mpv/internal/libmpv"
	"github.com/cromfel/go-mpv/internal/logging"
)

// loadLibrary is swapped out in tests so the suite runs without a shared
// library on the host.
var loadLibrary = libmpv.Load

// Client owns one mpv engine handle.
//
// The engine serializes its own callback dispatch, and handle operations are
// safe to call from any goroutine, with one documented exception: Close must
// not run concurrently with WaitEvent on the same client. Drain the event
// loop (quit command, then wait for the shutdown event) before closing.
type Client struct {
	handle uintptr
	name   string
	log    zerolog.Logger

	closed atomic.Bool

	mu         sync.Mutex
	streamRegs []uintptr
}

// Initializer configures an engine handle between creation and
// initialization. Options that must be set before playback starts (such as
// config-dir or hwdec probing behavior) only take effect here.
type Initializer struct {
	handle uintptr
}

// New creates and initializes an engine handle with default options. The
// logger is taken from ctx.
func New(ctx context.Context) (*Client, error) {
	return NewWithInitializer(ctx, nil)
}

// NewWithInitializer creates an engine handle, lets initialize set pre-init
// options on it, then initializes it. On any failure the handle is destroyed
// before returning.
func NewWithInitializer(ctx context.Context, initialize func(*Initializer) error) (*Client, error) {
	log := logging.FromContext(ctx).With().Str("component", "mpv-client").Logger()

	if err := loadLibrary(); err != nil {
		return nil, err
	}

	linked := uint64(libmpv.APIVersionMajor) << 16
	if loaded := libmpv.ClientAPIVersion(); loaded>>16 != libmpv.APIVersionMajor {
		return nil, &VersionMismatchError{Linked: linked, Loaded: loaded}
	}

	handle := libmpv.Create()
	if handle == 0 {
		return nil, ErrCreateFailed
	}

	if initialize != nil {
		if err := initialize(&Initializer{handle: handle}); err != nil {
			libmpv.TerminateDestroy(handle)
			return nil, fmt.Errorf("mpv: pre-init setup: %w", err)
		}
	}

	if status := libmpv.Initialize(handle); status < 0 {
		libmpv.TerminateDestroy(handle)
		return nil, fmt.Errorf("mpv: initialize: %w", errorFor(status))
	}

	c := &Client{
		handle: handle,
		name:   libmpv.GoString(libmpv.ClientName(handle)),
		log:    log,
	}
	log.Debug().Str("client", c.name).Msg("engine handle initialized")
	return c, nil
}

// APIVersion reports the client API version of the loaded library.
func APIVersion() (major, minor uint16, err error) {
	if err := loadLibrary(); err != nil {
		return 0, 0, err
	}
	v := libmpv.ClientAPIVersion()
	return uint16(v >> 16), uint16(v & 0xffff), nil
}

func (c *Client) alive() error {
	if c == nil || c.handle == 0 || c.closed.Load() {
		return ErrClientClosed
	}
	return nil
}

// ClientName returns the engine-assigned name of this handle.
func (c *Client) ClientName() string {
	return c.name
}

// Command runs an engine command given as one argument per parameter, e.g.
// Command("loadfile", path, "replace").
func (c *Client) Command(args ...string) error {
	if err := c.alive(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("mpv: empty command")
	}

	cstrs := make([][]byte, len(args))
	ptrs := make([]uintptr, len(args)+1) // NULL terminator stays zero
	for i, arg := range args {
		cstrs[i] = libmpv.CString(arg)
		ptrs[i] = uintptr(unsafe.Pointer(&cstrs[i][0]))
	}

	status := libmpv.Command(c.handle, uintptr(unsafe.Pointer(&ptrs[0])))
	runtime.KeepAlive(cstrs)
	runtime.KeepAlive(ptrs)
	if status < 0 {
		return fmt.Errorf("mpv: command %q: %w", args[0], errorFor(status))
	}
	return nil
}

// CommandString runs a command in the same string format mpv accepts in
// input.conf, e.g. "seek 10 relative".
func (c *Client) CommandString(command string) error {
	if err := c.alive(); err != nil {
		return err
	}
	ccmd := libmpv.CString(command)
	status := libmpv.CommandString(c.handle, uintptr(unsafe.Pointer(&ccmd[0])))
	runtime.KeepAlive(ccmd)
	return errorFor(status)
}

// SetProperty sets a property to a string, bool, int, int64, or float64
// value, choosing the matching engine format.
func (c *Client) SetProperty(name string, value any) error {
	if err := c.alive(); err != nil {
		return err
	}
	return setPropertyAny(c.handle, name, value)
}

// SetPropertyString sets a property from its string representation, letting
// the engine parse it.
func (c *Client) SetPropertyString(name, value string) error {
	if err := c.alive(); err != nil {
		return err
	}
	cname := libmpv.CString(name)
	cvalue := libmpv.CString(value)
	status := libmpv.SetPropertyString(c.handle,
		uintptr(unsafe.Pointer(&cname[0])), uintptr(unsafe.Pointer(&cvalue[0])))
	runtime.KeepAlive(cname)
	runtime.KeepAlive(cvalue)
	if status < 0 {
		return fmt.Errorf("mpv: set property %q: %w", name, errorFor(status))
	}
	return nil
}

// GetPropertyString returns a property formatted as a string.
func (c *Client) GetPropertyString(name string) (string, error) {
	if err := c.alive(); err != nil {
		return "", err
	}
	cname := libmpv.CString(name)
	var out uintptr
	status := libmpv.GetProperty(c.handle, uintptr(unsafe.Pointer(&cname[0])),
		libmpv.FormatString, uintptr(unsafe.Pointer(&out)))
	runtime.KeepAlive(cname)
	if status < 0 {
		return "", fmt.Errorf("mpv: get property %q: %w", name, errorFor(status))
	}
	defer libmpv.Free(out)
	return libmpv.GoString(out), nil
}

// GetPropertyInt64 returns an integer property.
func (c *Client) GetPropertyInt64(name string) (int64, error) {
	if err := c.alive(); err != nil {
		return 0, err
	}
	cname := libmpv.CString(name)
	var out int64
	status := libmpv.GetProperty(c.handle, uintptr(unsafe.Pointer(&cname[0])),
		libmpv.FormatInt64, uintptr(unsafe.Pointer(&out)))
	runtime.KeepAlive(cname)
	if status < 0 {
		return 0, fmt.Errorf("mpv: get property %q: %w", name, errorFor(status))
	}
	return out, nil
}

// GetPropertyFloat64 returns a floating point property.
func (c *Client) GetPropertyFloat64(name string) (float64, error) {
	if err := c.alive(); err != nil {
		return 0, err
	}
	cname := libmpv.CString(name)
	var out float64
	status := libmpv.GetProperty(c.handle, uintptr(unsafe.Pointer(&cname[0])),
		libmpv.FormatDouble, uintptr(unsafe.Pointer(&out)))
	runtime.KeepAlive(cname)
	if status < 0 {
		return 0, fmt.Errorf("mpv: get property %q: %w", name, errorFor(status))
	}
	return out, nil
}

// GetPropertyBool returns a flag property.
func (c *Client) GetPropertyBool(name string) (bool, error) {
	if err := c.alive(); err != nil {
		return false, err
	}
	cname := libmpv.CString(name)
	var out int32
	status := libmpv.GetProperty(c.handle, uintptr(unsafe.Pointer(&cname[0])),
		libmpv.FormatFlag, uintptr(unsafe.Pointer(&out)))
	runtime.KeepAlive(cname)
	if status < 0 {
		return false, fmt.Errorf("mpv: get property %q: %w", name, errorFor(status))
	}
	return out != 0, nil
}

// LoadConfigFile loads an mpv config file into the engine.
func (c *Client) LoadConfigFile(path string) error {
	if err := c.alive(); err != nil {
		return err
	}
	cpath := libmpv.CString(path)
	status := libmpv.LoadConfigFile(c.handle, uintptr(unsafe.Pointer(&cpath[0])))
	runtime.KeepAlive(cpath)
	if status < 0 {
		return fmt.Errorf("mpv: load config %q: %w", path, errorFor(status))
	}
	return nil
}

// TimeUS returns the engine's internal monotonic time in microseconds.
func (c *Client) TimeUS() int64 {
	if c.alive() != nil {
		return 0
	}
	return libmpv.GetTimeUS(c.handle)
}

// Wakeup interrupts a concurrent WaitEvent call.
func (c *Client) Wakeup() {
	if c.alive() != nil {
		return
	}
	libmpv.Wakeup(c.handle)
}

// Close destroys the engine handle, blocking until the engine has shut down
// and closed any open streams, then releases this client's protocol
// registrations. Safe to call more than once.
func (c *Client) Close() {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return
	}
	// Destruction drives close callbacks for streams that are still open, so
	// registrations must stay resolvable until it returns.
	libmpv.TerminateDestroy(c.handle)

	c.mu.Lock()
	regs := c.streamRegs
	c.streamRegs = nil
	c.mu.Unlock()
	for _, id := range regs {
		dropRegistration(id)
	}
	c.log.Debug().Int("protocols", len(regs)).Msg("engine handle destroyed")
}

func (c *Client) trackRegistration(id uintptr) {
	c.mu.Lock()
	c.streamRegs = append(c.streamRegs, id)
	c.mu.Unlock()
}

// SetOption sets a pre-init option using the typed property interface.
func (i *Initializer) SetOption(name string, value any) error {
	return setPropertyAny(i.handle, name, value)
}

// SetOptionString sets a pre-init option from its string form.
func (i *Initializer) SetOptionString(name, value string) error {
	cname := libmpv.CString(name)
	cvalue := libmpv.CString(value)
	status := libmpv.SetOptionString(i.handle,
		uintptr(unsafe.Pointer(&cname[0])), uintptr(unsafe.Pointer(&cvalue[0])))
	runtime.KeepAlive(cname)
	runtime.KeepAlive(cvalue)
	if status < 0 {
		return fmt.Errorf("mpv: set option %q: %w", name, errorFor(status))
	}
	return nil
}

// setPropertyAny marshals value into the matching engine format and sets it
// on the handle. Works pre-init (options) and post-init (properties).
func setPropertyAny(handle uintptr, name string, value any) error {
	cname := libmpv.CString(name)
	nameArg := uintptr(unsafe.Pointer(&cname[0]))

	var status int32
	switch v := value.(type) {
	case string:
		// FormatString data is a pointer to a char* variable.
		cvalue := libmpv.CString(v)
		data := uintptr(unsafe.Pointer(&cvalue[0]))
		status = libmpv.SetProperty(handle, nameArg, libmpv.FormatString, uintptr(unsafe.Pointer(&data)))
		runtime.KeepAlive(cvalue)
	case bool:
		var flag int32
		if v {
			flag = 1
		}
		status = libmpv.SetProperty(handle, nameArg, libmpv.FormatFlag, uintptr(unsafe.Pointer(&flag)))
	case int:
		data := int64(v)
		status = libmpv.SetProperty(handle, nameArg, libmpv.FormatInt64, uintptr(unsafe.Pointer(&data)))
	case int64:
		data := v
		status = libmpv.SetProperty(handle, nameArg, libmpv.FormatInt64, uintptr(unsafe.Pointer(&data)))
	case float64:
		data := v
		status = libmpv.SetProperty(handle, nameArg, libmpv.FormatDouble, uintptr(unsafe.Pointer(&data)))
	default:
		return fmt.Errorf("mpv: unsupported value type %T for %q", value, name)
	}
	runtime.KeepAlive(cname)

	if status < 0 {
		return fmt.Errorf("mpv: set %q: %w", name, errorFor(status))
	}
	return nil
}
