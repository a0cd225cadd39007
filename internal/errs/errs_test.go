package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	err := New(CodePidError, "handle is gone")
	require.Equal(t, "PID_ERROR: handle is gone", err.Error())
}

func TestError_WithCause(t *testing.T) {
	cause := errors.New("boom")
	err := New(CodeSpawnError, "spawn failed").WithCause(cause)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "boom")
}

func TestError_IsMatchesByCode(t *testing.T) {
	a := New(CodeKillError, "first message")
	b := New(CodeKillError, "second message")
	c := New(CodePidError, "third message")

	require.True(t, a.Is(b), "same code should match regardless of message")
	require.False(t, a.Is(c), "different code should not match")
	require.ErrorIs(t, a, b)
}

func TestNewf_FormatsMessage(t *testing.T) {
	err := Newf(CodeInvalidArgument, "bad value %d", 42)
	require.Equal(t, "INVALID_ARGUMENT: bad value 42", err.Error())
}
