package mpv

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeValuesPassThrough(t *testing.T) {
	t.Parallel()

	// Raw engine statuses must survive the round trip through the error
	// layer numerically unchanged.
	assert.Equal(t, int32(-1), int32(ErrEventQueueFull))
	assert.Equal(t, int32(-4), int32(ErrInvalidParameter))
	assert.Equal(t, int32(-18), int32(ErrUnsupported))
	assert.Equal(t, int32(-20), int32(ErrGeneric))
}

func TestErrorFor(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errorFor(0))
	assert.NoError(t, errorFor(7), "positive statuses are success values")

	err := errorFor(-18)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)

	var code ErrorCode
	require.ErrorAs(t, err, &code)
	assert.Equal(t, ErrUnsupported, code)
}

func TestErrorCodeMessages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "mpv: operation not supported", ErrUnsupported.Error())
	assert.Equal(t, "mpv: generic error", ErrGeneric.Error())
	assert.Equal(t, "mpv: error code -99", ErrorCode(-99).Error())
}

func TestErrorCodeSurvivesWrapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("mpv: register protocol %q: %w", "dup", errorFor(-4))
	assert.ErrorIs(t, wrapped, ErrInvalidParameter)

	var code ErrorCode
	require.ErrorAs(t, wrapped, &code)
	assert.Equal(t, int32(-4), int32(code))
}

func TestLocalErrorsAreNotEngineCodes(t *testing.T) {
	t.Parallel()

	locals := []error{ErrClientClosed, ErrInvalidName, ErrMissingCallback, ErrAlreadyRegistered, ErrCreateFailed}
	for _, err := range locals {
		var code ErrorCode
		assert.False(t, errors.As(err, &code), "%v must not masquerade as an engine status", err)
	}
}

func TestVersionMismatchError(t *testing.T) {
	t.Parallel()

	err := &VersionMismatchError{Linked: 2 << 16, Loaded: 1<<16 | 109}
	assert.Equal(t,
		"mpv: client API version mismatch: bindings target 2.x, library reports 1.109",
		err.Error())
}
