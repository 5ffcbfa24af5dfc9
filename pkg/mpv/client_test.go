package mpv

import (
	"context"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cromfel/go-mpv/internal/libmpv"
)

// stub swaps a package-level function variable for the duration of a test.
func stub[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	prev := *target
	*target = replacement
	t.Cleanup(func() { *target = prev })
}

const testHandle = uintptr(0xbeef)

// stubEngineCreation wires the minimal happy path for NewWithInitializer:
// matching API version, a valid handle, successful init, and a client name.
func stubEngineCreation(t *testing.T) *[]string {
	t.Helper()
	var sequence []string

	stub(t, &loadLibrary, func() error { return nil })
	stub(t, &libmpv.ClientAPIVersion, func() uint64 { return libmpv.APIVersionMajor<<16 | 4 })
	stub(t, &libmpv.Create, func() uintptr {
		sequence = append(sequence, "create")
		return testHandle
	})
	stub(t, &libmpv.Initialize, func(handle uintptr) int32 {
		sequence = append(sequence, "initialize")
		return 0
	})
	stub(t, &libmpv.TerminateDestroy, func(handle uintptr) {
		sequence = append(sequence, "destroy")
	})
	name := libmpv.CString("main")
	stub(t, &libmpv.ClientName, func(handle uintptr) uintptr {
		return uintptr(unsafe.Pointer(&name[0]))
	})
	return &sequence
}

func TestNewChecksAPIVersionFirst(t *testing.T) {
	sequence := stubEngineCreation(t)
	stub(t, &libmpv.ClientAPIVersion, func() uint64 { return 1<<16 | 109 })

	c, err := New(context.Background())
	require.Nil(t, c)

	var mismatch *VersionMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, uint64(1<<16|109), mismatch.Loaded)
	assert.Equal(t, uint64(libmpv.APIVersionMajor)<<16, mismatch.Linked)
	assert.Empty(t, *sequence, "no handle may be created on a version mismatch")
}

func TestNewCreateFailure(t *testing.T) {
	stubEngineCreation(t)
	stub(t, &libmpv.Create, func() uintptr { return 0 })

	c, err := New(context.Background())
	require.Nil(t, c)
	assert.ErrorIs(t, err, ErrCreateFailed)
}

func TestNewInitializeFailureDestroysHandle(t *testing.T) {
	sequence := stubEngineCreation(t)
	stub(t, &libmpv.Initialize, func(handle uintptr) int32 {
		*sequence = append(*sequence, "initialize")
		return libmpv.ErrorVOInitFailed
	})

	c, err := New(context.Background())
	require.Nil(t, c)
	assert.ErrorIs(t, err, ErrVOInitFailed)
	assert.Equal(t, []string{"create", "initialize", "destroy"}, *sequence)
}

func TestNewWithInitializerRunsBetweenCreateAndInit(t *testing.T) {
	sequence := stubEngineCreation(t)
	stub(t, &libmpv.SetOptionString, func(handle, name, data uintptr) int32 {
		*sequence = append(*sequence, "option:"+libmpv.GoString(name)+"="+libmpv.GoString(data))
		return 0
	})

	c, err := NewWithInitializer(context.Background(), func(init *Initializer) error {
		return init.SetOptionString("vo", "null")
	})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, []string{"create", "option:vo=null", "initialize"}, *sequence)
	assert.Equal(t, "main", c.ClientName())
}

func TestNewInitializerErrorDestroysHandle(t *testing.T) {
	sequence := stubEngineCreation(t)

	c, err := NewWithInitializer(context.Background(), func(init *Initializer) error {
		return assert.AnError
	})
	require.Nil(t, c)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, []string{"create", "destroy"}, *sequence, "initialize must not run after a failed initializer")
}

func TestCommandMarshalsNullTerminatedArgv(t *testing.T) {
	var got []string
	stub(t, &libmpv.Command, func(handle uintptr, args uintptr) int32 {
		ptrSize := unsafe.Sizeof(uintptr(0))
		for i := 0; ; i++ {
			p := *(*uintptr)(unsafe.Pointer(args + uintptr(i)*ptrSize))
			if p == 0 {
				break
			}
			got = append(got, libmpv.GoString(p))
		}
		return 0
	})

	c := newTestClient(t)
	require.NoError(t, c.Command("loadfile", "filereader:///tmp/a.mkv", "replace"))
	assert.Equal(t, []string{"loadfile", "filereader:///tmp/a.mkv", "replace"}, got)
}

func TestCommandPropagatesEngineStatus(t *testing.T) {
	stub(t, &libmpv.Command, func(handle uintptr, args uintptr) int32 {
		return libmpv.ErrorCommand
	})

	c := newTestClient(t)
	err := c.Command("loadfile", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommand)
	assert.Contains(t, err.Error(), `"loadfile"`)
}

func TestCommandEmpty(t *testing.T) {
	c := newTestClient(t)
	assert.Error(t, c.Command())
}

func TestSetPropertyFormats(t *testing.T) {
	type captured struct {
		name   string
		format int32
		value  any
	}
	var last captured
	stub(t, &libmpv.SetProperty, func(handle, name uintptr, format int32, data uintptr) int32 {
		last = captured{name: libmpv.GoString(name), format: format}
		switch format {
		case libmpv.FormatString:
			last.value = libmpv.GoString(*(*uintptr)(unsafe.Pointer(data)))
		case libmpv.FormatFlag:
			last.value = *(*int32)(unsafe.Pointer(data))
		case libmpv.FormatInt64:
			last.value = *(*int64)(unsafe.Pointer(data))
		case libmpv.FormatDouble:
			last.value = *(*float64)(unsafe.Pointer(data))
		}
		return 0
	})

	c := newTestClient(t)

	tests := []struct {
		name       string
		value      any
		wantFormat int32
		wantValue  any
	}{
		{name: "speed", value: 1.5, wantFormat: libmpv.FormatDouble, wantValue: 1.5},
		{name: "volume", value: 65, wantFormat: libmpv.FormatInt64, wantValue: int64(65)},
		{name: "chapter", value: int64(3), wantFormat: libmpv.FormatInt64, wantValue: int64(3)},
		{name: "pause", value: true, wantFormat: libmpv.FormatFlag, wantValue: int32(1)},
		{name: "hwdec", value: "auto-safe", wantFormat: libmpv.FormatString, wantValue: "auto-safe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, c.SetProperty(tt.name, tt.value))
			assert.Equal(t, tt.name, last.name)
			assert.Equal(t, tt.wantFormat, last.format)
			assert.Equal(t, tt.wantValue, last.value)
		})
	}

	t.Run("unsupported type", func(t *testing.T) {
		assert.Error(t, c.SetProperty("x", []string{"no"}))
	})
}

func TestGetPropertyStringCopiesAndFrees(t *testing.T) {
	value := libmpv.CString("23.970")
	var freed uintptr
	stub(t, &libmpv.GetProperty, func(handle, name uintptr, format int32, data uintptr) int32 {
		require.Equal(t, libmpv.FormatString, format)
		*(*uintptr)(unsafe.Pointer(data)) = uintptr(unsafe.Pointer(&value[0]))
		return 0
	})
	stub(t, &libmpv.Free, func(ptr uintptr) { freed = ptr })

	c := newTestClient(t)
	got, err := c.GetPropertyString("video-fps")
	require.NoError(t, err)
	assert.Equal(t, "23.970", got)
	assert.Equal(t, uintptr(unsafe.Pointer(&value[0])), freed, "engine-owned string must be freed")
}

func TestGetPropertyTyped(t *testing.T) {
	stub(t, &libmpv.GetProperty, func(handle, name uintptr, format int32, data uintptr) int32 {
		switch format {
		case libmpv.FormatInt64:
			*(*int64)(unsafe.Pointer(data)) = 1234
		case libmpv.FormatDouble:
			*(*float64)(unsafe.Pointer(data)) = 87.5
		case libmpv.FormatFlag:
			*(*int32)(unsafe.Pointer(data)) = 1
		}
		return 0
	})

	c := newTestClient(t)

	i, err := c.GetPropertyInt64("playlist-count")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), i)

	f, err := c.GetPropertyFloat64("volume")
	require.NoError(t, err)
	assert.Equal(t, 87.5, f)

	b, err := c.GetPropertyBool("pause")
	require.NoError(t, err)
	assert.True(t, b)
}

func TestGetPropertyErrorPassthrough(t *testing.T) {
	stub(t, &libmpv.GetProperty, func(handle, name uintptr, format int32, data uintptr) int32 {
		return libmpv.ErrorPropertyNotFound
	})

	c := newTestClient(t)
	_, err := c.GetPropertyString("no-such-property")
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestClientOpsAfterClose(t *testing.T) {
	c := newTestClient(t)
	c.closed.Store(true)

	assert.ErrorIs(t, c.Command("stop"), ErrClientClosed)
	assert.ErrorIs(t, c.SetProperty("volume", 10), ErrClientClosed)
	_, err := c.GetPropertyString("volume")
	assert.ErrorIs(t, err, ErrClientClosed)
	assert.ErrorIs(t, c.LoadConfigFile("/tmp/mpv.conf"), ErrClientClosed)
}

func TestCloseIsIdempotentAndReleasesRegistrations(t *testing.T) {
	resetStreamTables(t)

	destroys := 0
	stub(t, &libmpv.TerminateDestroy, func(handle uintptr) { destroys++ })

	fake := &fakeAddRo{statuses: []int32{0}}
	fake.install(t)

	c := newTestClient(t)
	proto := NewProtocol("teardown", struct{}{},
		func(_ *struct{}, _ string) (int, error) { return 0, nil },
		func(_ *int) {},
		func(_ *int, _ []byte) (int, error) { return 0, nil },
		nil, nil)
	require.NoError(t, proto.Register(c))
	require.Equal(t, 1, registrationCount())

	c.Close()
	c.Close()

	assert.Equal(t, 1, destroys, "the handle is destroyed exactly once")
	assert.Zero(t, registrationCount(), "registrations are released after destruction")
}

func TestAPIVersion(t *testing.T) {
	stub(t, &loadLibrary, func() error { return nil })
	stub(t, &libmpv.ClientAPIVersion, func() uint64 { return 2<<16 | 3 })

	major, minor, err := APIVersion()
	require.NoError(t, err)
	assert.Equal(t, uint16(2), major)
	assert.Equal(t, uint16(3), minor)
}

func TestAPIVersionLoadFailure(t *testing.T) {
	stub(t, &loadLibrary, func() error { return assert.AnError })

	_, _, err := APIVersion()
	assert.ErrorIs(t, err, assert.AnError)
}
