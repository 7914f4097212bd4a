// Package runner executes external commands for the rotation steps.
package runner

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// pipeGrace bounds how long Run waits for output pipes held open by
// descendants once the command has exited or been killed.
const pipeGrace = time.Second

// Runner executes a command and returns its combined stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands as child processes. The process environment is
// inherited, which is how the aws tool receives credentials.
type ExecRunner struct {
	// Timeout bounds each invocation; zero waits for the command to finish.
	Timeout time.Duration
	Log     *zap.Logger
}

var _ Runner = (*ExecRunner)(nil)

// Run starts the command in its own process group. When ctx is done the
// whole group is killed, so children forked by a shell die with it.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	killProcessGroup(cmd)
	cmd.WaitDelay = pipeGrace

	start := time.Now()
	out, err := cmd.CombinedOutput()
	if errors.Is(err, exec.ErrWaitDelay) && ctx.Err() == nil {
		// The command succeeded but left a background process holding stdout.
		r.logger().Warn("command left a background process attached to its output",
			zap.String("cmd", name))
		err = nil
	}
	r.logger().Debug("command finished",
		zap.String("cmd", name),
		zap.Strings("args", args),
		zap.Duration("duration", time.Since(start)),
		zap.ByteString("output", out),
		zap.Error(err),
	)
	return out, err
}

func (r *ExecRunner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
