package subprocess

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpen_WriteModeFeedsChildStdin(t *testing.T) {
	chain, err := Open(Cmd(NewCommand("cat")), WriteMode, Null{})
	require.NoError(t, err)
	require.NotNil(t, chain.In)

	w := chain.In.ParentWrite()
	require.NotNil(t, w)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, chain.Wait(true))
	require.True(t, chain.Success())
}

func TestOpen_ReadModeCapturesStdout(t *testing.T) {
	chain, err := Open(Cmd(NewCommand("echo", "-n", "from child")), ReadMode, Null{})
	require.NoError(t, err)
	require.NotNil(t, chain.Out)

	r := chain.Out.ParentRead()
	require.NotNil(t, r)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "from child", string(got))

	require.NoError(t, chain.Wait(true))
}

func TestWithOpen_SuccessPath(t *testing.T) {
	var captured string
	err := WithOpen(Cmd(NewCommand("echo", "-n", "payload")), ReadMode, Null{}, func(chain *ProcessChain) error {
		b, rerr := io.ReadAll(chain.Out.ParentRead())
		captured = string(b)
		return rerr
	})
	require.NoError(t, err)
	require.Equal(t, "payload", captured)
}

func TestRead_CapturesStdout(t *testing.T) {
	b, err := Read(Cmd(NewCommand("printf", "abc")))
	require.NoError(t, err)
	require.Equal(t, "abc", string(b))
}
