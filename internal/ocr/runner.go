package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
	"unicode/utf8"
)

const stderrTail = 512

// Runner executes an external command. Tests swap in a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// CommandError carries the tail of a failed tool's stderr.
type CommandError struct {
	Name   string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var out, errb bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// exec runs one tool through the configured Runner and logs its outcome.
func (e *Extractor) exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	start := time.Now()
	out, errb, err := e.runner.Run(ctx, name, args...)
	log := e.logger.With("cmd", name, "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		cerr := &CommandError{Name: name, Stderr: tail(string(bytes.TrimSpace(errb)), stderrTail), Err: err}
		log.Error("ocr.exec.failed", "error", err, "stderr", cerr.Stderr)
		return nil, cerr
	}
	log.Debug("ocr.exec.ok", "stdout_bytes", len(out))
	return out, nil
}

// tail keeps the last n bytes of s, cut at a rune boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[len(s)-n:]
	for len(s) > 0 && !utf8.RuneStart(s[0]) {
		s = s[1:]
	}
	return "..." + s
}
