package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCapturesLocation(t *testing.T) {
	err := New("something broke")

	assert.Equal(t, "something broke", err.Error())

	file, line := err.Location()
	assert.True(t, strings.HasSuffix(file, "errors_test.go"))
	assert.Greater(t, line, 0)
}

func TestWrapPreservesChain(t *testing.T) {
	wrapped := Wrap(ErrSessionNotFound, "lookup failed")

	assert.Equal(t, "lookup failed: drill session not found", wrapped.Error())
	assert.True(t, Is(wrapped, ErrSessionNotFound))
	assert.Equal(t, ErrSessionNotFound, wrapped.Unwrap())

	// Wrapping nil stays nil
	assert.Nil(t, Wrap(nil, "no-op"))
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrInvalidConfig, "bad value %d for %s", 42, "port")

	assert.Equal(t, "bad value 42 for port: invalid configuration", err.Error())
	assert.True(t, Is(err, ErrInvalidConfig))
	assert.Nil(t, Wrapf(nil, "no-op"))
}

func TestWithFieldCopies(t *testing.T) {
	base := Wrap(ErrDrillNotRunning, "cannot stop")
	enriched := base.WithField("session_id", "abc")

	assert.Equal(t, "abc", enriched.Fields()["session_id"])
	assert.NotContains(t, base.Fields(), "session_id")

	// The chain survives enrichment
	assert.True(t, Is(enriched, ErrDrillNotRunning))
}

func TestWithFieldsMerges(t *testing.T) {
	err := New("boom").
		WithField("a", 1).
		WithFields(map[string]interface{}{"b": 2, "c": 3})

	fields := err.Fields()
	assert.Equal(t, 1, fields["a"])
	assert.Equal(t, 2, fields["b"])
	assert.Equal(t, 3, fields["c"])
}

func TestWithCode(t *testing.T) {
	err := New("boom").WithCode("E_BOOM")
	assert.Equal(t, "E_BOOM", err.Code)
}

func TestAsFindsStructuredError(t *testing.T) {
	wrapped := Wrap(ErrInvalidConfig, "outer")

	var structured *Error
	assert.True(t, As(wrapped, &structured))
	assert.Equal(t, "outer: invalid configuration", structured.Error())
}

func TestNilSafety(t *testing.T) {
	var err *Error
	assert.Equal(t, "", err.Error())
	assert.Nil(t, err.Unwrap())
	assert.Nil(t, err.Fields())
	assert.Nil(t, err.WithField("k", "v"))
	assert.Nil(t, err.WithCode("X"))
}
