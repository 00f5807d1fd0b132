// Package execx は外部コマンド（git ls-files）の実行を差し替え可能にする。
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner runs one external command and returns its captured output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// gitEnv keeps listings stable regardless of the user's git configuration.
var gitEnv = []string{
	"GIT_OPTIONAL_LOCKS=0",
	"GIT_TERMINAL_PROMPT=0",
	"LC_ALL=C",
}

// CommandRunner は exec.CommandContext による Runner。Env は親プロセスの環境に追加される。
type CommandRunner struct {
	Env []string
}

func (r CommandRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// DefaultRunner returns the runner used for git listings.
func DefaultRunner() Runner {
	return CommandRunner{Env: gitEnv}
}

// CommandError は失敗したコマンドと、その標準エラーの要約
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Output runs name through r and returns stdout. Failures come back as
// *CommandError labelled with label ("git ls-files") and the first line of
// stderr.
func Output(ctx context.Context, r Runner, dir, label, name string, args ...string) ([]byte, error) {
	if r == nil {
		r = DefaultRunner()
	}
	stdout, stderr, err := r.Run(ctx, dir, name, args...)
	if err != nil {
		msg, _, _ := strings.Cut(strings.TrimSpace(string(stderr)), "\n")
		return nil, &CommandError{Command: label, Stderr: msg, Err: err}
	}
	return stdout, nil
}

// IsNotFound reports whether err means the executable could not be started
// (missing from PATH and the like).
func IsNotFound(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr)
}
