// Package quiesce runs the pre-snapshot command that flushes or freezes the
// filesystem before the volume is snapshotted.
package quiesce

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lzjever/ec2-rsnapshot/internal/core"
	"github.com/lzjever/ec2-rsnapshot/internal/observability"
	"github.com/lzjever/ec2-rsnapshot/internal/runner"
)

type Hook struct {
	Shell  string
	Runner runner.Runner
}

// Run executes command through the shell. An empty command is a no-op.
// A non-zero exit becomes ErrPreCommandFailed carrying the combined output.
func (h *Hook) Run(ctx context.Context, command string, log *zap.Logger) error {
	if command == "" {
		return nil
	}

	shell := h.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	log.Info("quiesce: running pre-command", zap.String("cmd", command))
	start := time.Now()
	out, err := h.Runner.Run(ctx, shell, "-c", command)
	observability.StepDuration.WithLabelValues("precommand").Observe(time.Since(start).Seconds())

	if err != nil {
		return core.WrapAppError(core.ErrPreCommandFailed, "pre-command failed", err, out)
	}
	log.Info("quiesce: pre-command completed", zap.Duration("duration", time.Since(start)))
	return nil
}
