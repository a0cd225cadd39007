package subprocess

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCommand_Display(t *testing.T) {
	c := NewCommand("grep", "-n", "TODO")
	require.Equal(t, "grep -n TODO", c.Display())
}

func TestCommandSpec_WithMethodsReturnCopies(t *testing.T) {
	base := NewCommand("echo", "hi")
	withDir := base.WithDir("/tmp")
	withEnv := base.WithEnv([]string{"FOO=bar"})

	require.Empty(t, base.Dir, "With* methods must not mutate the receiver")
	require.Empty(t, base.Env)
	require.Equal(t, "/tmp", withDir.Dir)
	require.Equal(t, []string{"FOO=bar"}, withEnv.Env)
}

func TestCommandSpec_IgnoringStatus(t *testing.T) {
	c := NewCommand("false").IgnoringStatus()
	require.True(t, c.IgnoreStatus)
}
