package mpv

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/rs/zerolog"

	"github.com/cromfel/go-mpv/internal/libmpv"
)

// StreamOpen opens one stream instance for uri and returns its initial
// state. userData points at the value shared by every instance of the
// protocol; guarding it against concurrent opens is the application's job.
type StreamOpen[T, U any] func(userData *U, uri string) (T, error)

// StreamClose releases one stream instance. Called at most once, and only
// after a successful open.
type StreamClose[T any] func(state *T)

// StreamRead fills buf with the next bytes of the stream, io.Reader style:
// return the count written, and io.EOF (or a plain zero count) at
// end-of-stream.
type StreamRead[T any] func(state *T, buf []byte) (int, error)

// StreamSeek repositions the stream to an absolute offset and returns the
// resulting position.
type StreamSeek[T any] func(state *T, offset int64) (int64, error)

// StreamSize reports the total length of the stream in bytes.
type StreamSize[T any] func(state *T) (int64, error)

// Protocol describes a custom stream scheme before and after registration.
// T is the per-instance state produced by open; U is the protocol-wide
// user data shared across instances.
//
// The engine calls the callbacks from its own threads. Calls to one instance
// are never concurrent with each other, but different instances run in
// parallel, so anything reaching userData from the callbacks needs its own
// synchronization.
type Protocol[T, U any] struct {
	name     string
	userData U

	openFn  StreamOpen[T, U]
	closeFn StreamClose[T]
	readFn  StreamRead[T]
	seekFn  StreamSeek[T]
	sizeFn  StreamSize[T]

	mu     sync.Mutex
	regID  uintptr
	client *Client
}

// NewProtocol builds a protocol for the given scheme name (the part before
// "://" in URIs). open, close, and read are required; seek and size may be
// nil, in which case the engine treats the stream as unseekable and of
// unknown length.
func NewProtocol[T, U any](
	name string,
	userData U,
	open StreamOpen[T, U],
	close StreamClose[T],
	read StreamRead[T],
	seek StreamSeek[T],
	size StreamSize[T],
) *Protocol[T, U] {
	return &Protocol[T, U]{
		name:     name,
		userData: userData,
		openFn:   open,
		closeFn:  close,
		readFn:   read,
		seekFn:   seek,
		sizeFn:   size,
	}
}

// Name returns the scheme name this protocol serves.
func (p *Protocol[T, U]) Name() string {
	return p.name
}

// Register hands the protocol to the engine. After a successful return the
// engine owns the registration until the client is closed: every
// "name://..." URI loaded on the client is served by this protocol's
// callbacks. Registering a scheme the engine already knows (built-in or
// previously registered) fails with the engine's status; the existing
// handler stays active.
func (p *Protocol[T, U]) Register(c *Client) error {
	if p.openFn == nil || p.closeFn == nil || p.readFn == nil {
		return ErrMissingCallback
	}
	if err := validateProtocolName(p.name); err != nil {
		return err
	}
	if err := c.alive(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.regID != 0 {
		return ErrAlreadyRegistered
	}

	log := c.log.With().Str("component", "stream-proto").Str("scheme", p.name).Logger()
	reg := &registration{
		name: p.name,
		open: p.bindOpen(),
		log:  log,
	}

	// The engine only ever sees the slot-map key, never a Go pointer. The
	// record stays in the map for the life of the engine handle so the key
	// stays resolvable for as long as the engine may dispatch on it.
	id := storeRegistration(reg)

	cname := libmpv.CString(p.name)
	status := libmpv.StreamCbAddRo(c.handle,
		uintptr(unsafe.Pointer(&cname[0])), id, streamOpenCallback())
	runtime.KeepAlive(cname)
	if status < 0 {
		dropRegistration(id)
		return fmt.Errorf("mpv: register protocol %q: %w", p.name, errorFor(status))
	}

	p.regID = id
	p.client = c
	c.trackRegistration(id)
	log.Debug().Msg("stream protocol registered")
	return nil
}

// bindOpen type-erases the protocol into the form the dispatch layer works
// with. The callback references are copied here, so instances opened later
// are immune to any mutation of the Protocol value.
func (p *Protocol[T, U]) bindOpen() func(uri string) (*streamInstance, error) {
	openFn := p.openFn
	closeFn := p.closeFn
	readFn := p.readFn
	seekFn := p.seekFn
	sizeFn := p.sizeFn
	userData := &p.userData

	return func(uri string) (*streamInstance, error) {
		state := new(T)
		value, err := openFn(userData, uri)
		if err != nil {
			return nil, err
		}
		*state = value

		inst := &streamInstance{
			read:  func(buf []byte) (int, error) { return readFn(state, buf) },
			close: func() { closeFn(state) },
		}
		if seekFn != nil {
			inst.seek = func(offset int64) (int64, error) { return seekFn(state, offset) }
		}
		if sizeFn != nil {
			inst.size = func() (int64, error) { return sizeFn(state) }
		}
		return inst, nil
	}
}

func validateProtocolName(name string) error {
	if name == "" || strings.ContainsRune(name, 0) {
		return ErrInvalidName
	}
	return nil
}

// registration is one registered scheme, type-erased. Looked up by the open
// trampoline through the slot-map key the engine carries as user data.
type registration struct {
	name string
	open func(uri string) (*streamInstance, error)
	log  zerolog.Logger
}

// streamInstance is one open stream: the state block captured behind bound
// closures. seek and size are nil when the protocol did not provide them.
type streamInstance struct {
	read  func(buf []byte) (int, error)
	seek  func(offset int64) (int64, error)
	size  func() (int64, error)
	close func()
	log   zerolog.Logger
}

// Slot maps connecting engine-held integer keys to Go records. Cookies and
// registration keys deliberately never leave this package as pointers.
var (
	streamMu      sync.RWMutex
	registrations = make(map[uintptr]*registration)
	instances     = make(map[uintptr]*streamInstance)
	nextRegID     uintptr = 1
	nextCookie    uintptr = 1
)

func storeRegistration(reg *registration) uintptr {
	streamMu.Lock()
	defer streamMu.Unlock()
	id := nextRegID
	nextRegID++
	registrations[id] = reg
	return id
}

func dropRegistration(id uintptr) {
	streamMu.Lock()
	defer streamMu.Unlock()
	delete(registrations, id)
}

func lookupRegistration(id uintptr) *registration {
	streamMu.RLock()
	defer streamMu.RUnlock()
	return registrations[id]
}

func storeInstance(inst *streamInstance) uintptr {
	streamMu.Lock()
	defer streamMu.Unlock()
	cookie := nextCookie
	nextCookie++
	instances[cookie] = inst
	return cookie
}

func takeInstance(cookie uintptr) *streamInstance {
	streamMu.Lock()
	defer streamMu.Unlock()
	inst := instances[cookie]
	delete(instances, cookie)
	return inst
}

func lookupInstance(cookie uintptr) *streamInstance {
	streamMu.RLock()
	defer streamMu.RUnlock()
	return instances[cookie]
}

// C-callable trampolines. purego callbacks are a scarce per-process
// resource, so exactly five are created, lazily, and shared by every
// protocol and every instance; dispatch happens through the slot maps.
var (
	callbackOnce sync.Once
	openCB       uintptr
	readCB       uintptr
	seekCB       uintptr
	sizeCB       uintptr
	closeCB      uintptr
)

func streamOpenCallback() uintptr {
	callbackOnce.Do(func() {
		openCB = purego.NewCallback(streamOpenTrampoline)
		readCB = purego.NewCallback(streamReadTrampoline)
		seekCB = purego.NewCallback(streamSeekTrampoline)
		sizeCB = purego.NewCallback(streamSizeTrampoline)
		closeCB = purego.NewCallback(streamCloseTrampoline)
	})
	return openCB
}

// streamOpenTrampoline is the entry point the engine calls to open a
// "scheme://" URI. On success it stores the new instance, writes the cookie
// and the four instance entry points into info, and returns zero. On any
// failure, panic included, nothing is stored, info is untouched, and the
// generic error status is returned. No panic may escape to the C caller.
func streamOpenTrampoline(userData uintptr, curi uintptr, infoPtr uintptr) int32 {
	reg := lookupRegistration(userData)
	if reg == nil {
		return libmpv.ErrorGeneric
	}

	uri := libmpv.GoString(curi)
	log := reg.log.With().Str("uri", uri).Logger()

	inst, err := openGuarded(reg, uri)
	if err != nil {
		log.Error().Err(err).Msg("stream open failed")
		return libmpv.ErrorGeneric
	}
	inst.log = log

	cookie := storeInstance(inst)
	info := (*libmpv.StreamCBInfo)(unsafe.Pointer(infoPtr))
	info.Cookie = cookie
	info.ReadFn = readCB
	info.SeekFn = seekCB
	info.SizeFn = sizeCB
	info.CloseFn = closeCB

	log.Debug().Uint64("cookie", uint64(cookie)).Msg("stream opened")
	return libmpv.ErrorSuccess
}

func openGuarded(reg *registration, uri string) (inst *streamInstance, err error) {
	defer func() {
		if r := recover(); r != nil {
			reg.log.Error().Interface("panic", r).
				Bytes("stack", debug.Stack()).Msg("panic in stream open callback")
			inst = nil
			err = fmt.Errorf("open callback panicked: %v", r)
		}
	}()
	return reg.open(uri)
}

// streamReadTrampoline serves engine reads. The return contract is the
// engine's: positive byte count, 0 for end-of-stream, -1 for an error. A
// panicking or failing read reports -1 and leaves the instance open; the
// engine decides whether to retry or close.
func streamReadTrampoline(cookie uintptr, buf uintptr, nbytes uint64) (ret int64) {
	inst := lookupInstance(cookie)
	if inst == nil {
		return -1
	}
	defer func() {
		if r := recover(); r != nil {
			inst.log.Error().Interface("panic", r).
				Bytes("stack", debug.Stack()).Msg("panic in stream read callback")
			ret = -1
		}
	}()

	if nbytes == 0 {
		return 0
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(nbytes))
	n, err := inst.read(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		inst.log.Warn().Err(err).Msg("stream read failed")
		return -1
	}
	if n < 0 || n > len(dst) {
		inst.log.Error().Int("n", n).Int("cap", len(dst)).Msg("read callback returned count out of range")
		return -1
	}
	return int64(n)
}

// streamSeekTrampoline serves engine seeks to an absolute offset. A protocol
// without a seek callback reports unsupported without entering application
// code at all; a failing or panicking seek reports the generic error.
func streamSeekTrampoline(cookie uintptr, offset int64) (ret int64) {
	inst := lookupInstance(cookie)
	if inst == nil {
		return int64(libmpv.ErrorGeneric)
	}
	if inst.seek == nil {
		return int64(libmpv.ErrorUnsupported)
	}
	defer func() {
		if r := recover(); r != nil {
			inst.log.Error().Interface("panic", r).
				Bytes("stack", debug.Stack()).Msg("panic in stream seek callback")
			ret = int64(libmpv.ErrorGeneric)
		}
	}()

	pos, err := inst.seek(offset)
	if err != nil {
		inst.log.Warn().Err(err).Int64("offset", offset).Msg("stream seek failed")
		return int64(libmpv.ErrorGeneric)
	}
	return pos
}

// streamSizeTrampoline serves engine size queries. Size is advisory, so a
// missing callback, a failure, and a panic all collapse to the same
// unsupported status. That this differs from seek's generic-error mapping is
// historical, and callers depend on it.
func streamSizeTrampoline(cookie uintptr) (ret int64) {
	inst := lookupInstance(cookie)
	if inst == nil {
		return int64(libmpv.ErrorUnsupported)
	}
	if inst.size == nil {
		return int64(libmpv.ErrorUnsupported)
	}
	defer func() {
		if r := recover(); r != nil {
			inst.log.Error().Interface("panic", r).
				Bytes("stack", debug.Stack()).Msg("panic in stream size callback")
			ret = int64(libmpv.ErrorUnsupported)
		}
	}()

	size, err := inst.size()
	if err != nil {
		inst.log.Warn().Err(err).Msg("stream size failed")
		return int64(libmpv.ErrorUnsupported)
	}
	return size
}

// streamCloseTrampoline tears one instance down. The cookie is retired
// before the application callback runs, so the instance can never be
// dispatched again even if close panics; the panic itself is absorbed.
func streamCloseTrampoline(cookie uintptr) {
	inst := takeInstance(cookie)
	if inst == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			inst.log.Error().Interface("panic", r).
				Bytes("stack", debug.Stack()).Msg("panic in stream close callback")
		}
	}()
	inst.close()
	inst.log.Debug().Msg("stream closed")
}
