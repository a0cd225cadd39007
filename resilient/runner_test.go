package resilient

import (
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"

	"github.com/duskline/subprocess"
)

func TestRunner_SuccessKeepsCircuitClosed(t *testing.T) {
	r := NewRunner(Config{Name: "true-cmd"})

	_, err := r.Run(subprocess.Cmd(subprocess.NewCommand("true")), subprocess.Null{}, subprocess.Null{}, subprocess.Null{})
	require.NoError(t, err)
	require.Equal(t, gobreaker.StateClosed, r.State())
}

func TestRunner_OpensAfterConsecutiveFailures(t *testing.T) {
	r := NewRunner(Config{Name: "false-cmd", MaxFailures: 2})

	for i := 0; i < 2; i++ {
		_, err := r.Run(subprocess.Cmd(subprocess.NewCommand("false")), subprocess.Null{}, subprocess.Null{}, subprocess.Null{})
		require.Error(t, err)
	}

	require.Equal(t, gobreaker.StateOpen, r.State())

	_, err := r.Run(subprocess.Cmd(subprocess.NewCommand("false")), subprocess.Null{}, subprocess.Null{}, subprocess.Null{})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}
