package subprocess

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPipeFactory_LinkPipe(t *testing.T) {
	pf := PipeFactory{}
	r, w, err := pf.linkPipe()
	require.NoError(t, err)
	defer closeAll(r, w)

	_, err = w.WriteString("ping")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "ping", string(got))
}

func TestCloseAll_ToleratesNil(t *testing.T) {
	pf := PipeFactory{}
	r, w, err := pf.linkPipe()
	require.NoError(t, err)

	require.NoError(t, closeAll(r, w, nil))
}
