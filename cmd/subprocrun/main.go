// Command subprocrun runs a command-expression string built from the
// `|` (Pipe), `.|` (ErrPipe), and `&` (Seq) operators, with inherited
// stdio, and exits with the aggregate result of the chain — the nearest
// analogue to running the equivalent shell pipeline directly.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/duskline/subprocess"
	"github.com/duskline/subprocess/internal/obslog"
)

func main() {
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "console", "log format (json, console)")
	flag.Parse()

	obslog.Configure(*logLevel, *logFormat)
	log := obslog.Component("subprocrun")

	exprText := strings.Join(flag.Args(), " ")
	if exprText == "" {
		fmt.Fprintln(os.Stderr, "usage: subprocrun [flags] 'cmd1 arg | cmd2 .| cmd3 & cmd4'")
		os.Exit(2)
	}

	expr, err := parseExpr(exprText)
	if err != nil {
		log.Error().Err(err).Msg("parse failed")
		os.Exit(2)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	chain, err := subprocess.Run(expr, false, subprocess.Inherit{}, subprocess.Inherit{}, subprocess.Inherit{})
	if err != nil {
		log.Error().Err(err).Msg("spawn failed")
		os.Exit(1)
	}

	go func() {
		<-sigCh
		log.Warn().Msg("received interrupt, forwarding to chain")
		_ = chain.Kill(subprocess.SIGTERM)
	}()

	waitErr := chain.Wait(true)

	results := chain.Results()
	for _, r := range results {
		log.Info().Str("cmd", r.Command).Int64("exit_code", r.ExitCode).Int32("term_signal", r.TermSignal).Msg("member exited")
	}

	if waitErr != nil {
		log.Error().Err(waitErr).Msg("wait failed")
		os.Exit(1)
	}
	if !chain.Success() {
		os.Exit(int(results[len(results)-1].ExitCode))
	}
}

// parseExpr is a minimal left-to-right reader for the CLI's subset of
// command-expression syntax: whitespace-separated argv words, joined by
// the operators "|", ".|", and "&" at top level. It does not support
// quoting or Redirect — those are for the programmatic CommandExpr API
// in package subprocess, not this convenience CLI.
func parseExpr(text string) (subprocess.CommandExpr, error) {
	segments, ops, err := splitTopLevel(text)
	if err != nil {
		return nil, err
	}

	expr := leafFrom(segments[0])
	for i, op := range ops {
		next := leafFrom(segments[i+1])
		switch op {
		case "|":
			expr = expr.Pipe(next)
		case ".|":
			expr = expr.ErrPipe(next)
		case "&":
			expr = expr.Then(next)
		}
	}
	return expr, nil
}

func leafFrom(segment string) subprocess.CommandExpr {
	fields := strings.Fields(segment)
	return subprocess.Cmd(subprocess.NewCommand(fields[0], fields[1:]...))
}

func splitTopLevel(text string) (segments []string, ops []string, err error) {
	rest := text
	for {
		idx, op := nextOperator(rest)
		if idx < 0 {
			segments = append(segments, rest)
			break
		}
		segment := rest[:idx]
		if strings.TrimSpace(segment) == "" {
			return nil, nil, fmt.Errorf("subprocrun: empty command before operator %q", op)
		}
		segments = append(segments, segment)
		ops = append(ops, op)
		rest = rest[idx+len(op):]
	}
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return nil, nil, fmt.Errorf("subprocrun: empty command segment")
		}
	}
	return segments, ops, nil
}

// nextOperator finds the first top-level occurrence of ".|", "|", or "&"
// in s, preferring the two-character ".|" over a bare "|" match at the
// same position.
func nextOperator(s string) (int, string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' && i+1 < len(s) && s[i+1] == '|' {
			return i, ".|"
		}
		if s[i] == '|' {
			return i, "|"
		}
		if s[i] == '&' {
			return i, "&"
		}
	}
	return -1, ""
}
