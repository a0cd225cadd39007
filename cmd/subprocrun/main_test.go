package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextOperator(t *testing.T) {
	cases := []struct {
		in      string
		wantIdx int
		wantOp  string
	}{
		{"echo hi | grep hi", 8, "|"},
		{"cmd1 .| cmd2", 5, ".|"},
		{"cmd1 & cmd2", 5, "&"},
		{"echo hi", -1, ""},
	}
	for _, c := range cases {
		idx, op := nextOperator(c.in)
		require.Equal(t, c.wantIdx, idx, c.in)
		require.Equal(t, c.wantOp, op, c.in)
	}
}

func TestSplitTopLevel(t *testing.T) {
	segments, ops, err := splitTopLevel("echo hi | grep hi .| wc -l")
	require.NoError(t, err)
	require.Equal(t, []string{"echo hi ", " grep hi ", " wc -l"}, segments)
	require.Equal(t, []string{"|", ".|"}, ops)
}

func TestSplitTopLevel_RejectsEmptySegment(t *testing.T) {
	_, _, err := splitTopLevel("echo hi | | grep x")
	require.Error(t, err)
}

func TestParseExpr_BuildsCommandExpr(t *testing.T) {
	expr, err := parseExpr("echo hi | grep hi")
	require.NoError(t, err)
	require.NotNil(t, expr)
}

func TestParseExpr_EmptyInput(t *testing.T) {
	_, err := parseExpr("   ")
	require.Error(t, err)
}
