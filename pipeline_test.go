package subprocess

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompose_SimplePipe(t *testing.T) {
	var out bytes.Buffer
	expr := Cmd(NewCommand("echo", "hello world")).Pipe(Cmd(NewCommand("grep", "world")))

	chain, err := Compose(expr, []Redirectable{Null{}, Stream{Writer: &out}, Inherit{}}, defaultBufSize)
	require.NoError(t, err)
	require.NoError(t, chain.Wait(true))
	require.True(t, chain.Success())
	require.Contains(t, out.String(), "hello world")
}

func TestCompose_MultiStagePipe(t *testing.T) {
	var out bytes.Buffer
	expr := Cmd(NewCommand("printf", "foo\\nbar\\nfoo\\n")).
		Pipe(Cmd(NewCommand("grep", "foo"))).
		Pipe(Cmd(NewCommand("wc", "-l")))

	chain, err := Compose(expr, []Redirectable{Null{}, Stream{Writer: &out}, Inherit{}}, defaultBufSize)
	require.NoError(t, err)
	require.NoError(t, chain.Wait(true))
	require.True(t, chain.Success())
	require.Equal(t, "2", strings.TrimSpace(out.String()))
}

func TestCompose_ErrPipe(t *testing.T) {
	var out bytes.Buffer
	expr := Cmd(NewCommand("sh", "-c", "echo oops >&2")).
		ErrPipe(Cmd(NewCommand("grep", "oops")))

	chain, err := Compose(expr, []Redirectable{Null{}, Stream{Writer: &out}, Null{}}, defaultBufSize)
	require.NoError(t, err)
	require.NoError(t, chain.Wait(true))
	require.True(t, chain.Success())
	require.Contains(t, out.String(), "oops")
}

func TestCompose_Seq(t *testing.T) {
	expr := Cmd(NewCommand("true")).Then(Cmd(NewCommand("true")))

	chain, err := Compose(expr, []Redirectable{Null{}, Null{}, Null{}}, defaultBufSize)
	require.NoError(t, err)
	require.NoError(t, chain.Wait(true))
	require.Len(t, chain.Processes(), 2)
	require.True(t, chain.Success())
}

func TestCompose_PipeFailureKillsPartialChain(t *testing.T) {
	expr := Cmd(NewCommand("sleep", "10")).Pipe(Cmd(NewCommand("this-binary-does-not-exist-xyz123")))

	_, err := Compose(expr, []Redirectable{Null{}, Null{}, Null{}}, defaultBufSize)
	require.Error(t, err)
}

func TestCompose_Redirect(t *testing.T) {
	var out bytes.Buffer
	expr := Cmd(NewCommand("sh", "-c", "echo from-fd3 >&3")).
		Redirect(3, Stream{Writer: &out}, false)

	chain, err := Compose(expr, []Redirectable{Null{}, Null{}, Null{}}, defaultBufSize)
	require.NoError(t, err)
	require.NoError(t, chain.Wait(true))
	require.True(t, chain.Success())
	require.Contains(t, out.String(), "from-fd3")
}

func TestRun_ProcessFailedOnNonZeroExit(t *testing.T) {
	_, err := Run(Cmd(NewCommand("false")), true, Null{}, Null{}, Null{})
	require.Error(t, err)

	var pf *ProcessFailed
	require.ErrorAs(t, err, &pf)
}

func TestRun_IgnoreStatusSuppressesProcessFailed(t *testing.T) {
	spec := NewCommand("false").IgnoringStatus()
	chain, err := Run(Cmd(spec), true, Null{}, Null{}, Null{})
	require.NoError(t, err)
	require.NotEqual(t, int64(0), chain.Processes()[0].ExitCode())
}

func TestReadString(t *testing.T) {
	text, err := ReadString(Cmd(NewCommand("echo", "-n", "hi there")))
	require.NoError(t, err)
	require.Equal(t, "hi there", text)
}

func TestEachLine(t *testing.T) {
	var lines []string
	err := EachLine(Cmd(NewCommand("printf", "a\\nb\\nc\\n")), false, func(line string) error {
		lines = append(lines, line)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, lines)
}

func TestSuccess(t *testing.T) {
	require.True(t, Success(Cmd(NewCommand("true"))))
	require.False(t, Success(Cmd(NewCommand("false"))))
}
