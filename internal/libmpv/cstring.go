package libmpv

import "unsafe"

// maxCStringLen bounds GoString scans so a missing terminator cannot walk
// off into unmapped memory forever.
const maxCStringLen = 1 << 20

// CString returns s as a NUL-terminated byte slice suitable for passing to
// the C API. Callers must keep the slice alive (runtime.KeepAlive) across
// the call that uses its address.
func CString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// GoString copies a NUL-terminated C string into a Go string. A zero pointer
// yields the empty string.
func GoString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var length int
	for length < maxCStringLen {
		b := *(*byte)(unsafe.Pointer(ptr + uintptr(length)))
		if b == 0 {
			break
		}
		length++
	}
	if length == 0 {
		return ""
	}
	buf := make([]byte, length)
	for i := 0; i < length; i++ {
		buf[i] = *(*byte)(unsafe.Pointer(ptr + uintptr(i)))
	}
	return string(buf)
}
