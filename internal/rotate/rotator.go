// Package rotate runs one snapshot rotation: pre-command, create, list,
// and deletion of the snapshots outside the retention window.
package rotate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lzjever/ec2-rsnapshot/internal/core"
	"github.com/lzjever/ec2-rsnapshot/internal/observability"
	"github.com/lzjever/ec2-rsnapshot/internal/retention"
)

// SnapshotAPI is the subset of the aws client used by a rotation.
type SnapshotAPI interface {
	CreateSnapshot(ctx context.Context, volumeID, description string) error
	DescribeSnapshots(ctx context.Context, prefix string) ([]core.SnapshotRecord, error)
	DeleteSnapshot(ctx context.Context, snapshotID string) error
}

// PreCommand runs the optional command before the snapshot is taken.
type PreCommand interface {
	Run(ctx context.Context, command string, log *zap.Logger) error
}

// AuditSink receives one event per step. Nil disables auditing.
type AuditSink interface {
	Record(ctx context.Context, ev core.AuditEvent) (core.AuditEvent, error)
}

type Job struct {
	Prefix     string
	Retention  int
	VolumeID   string
	PreCommand string
	DryRun     bool
}

type Result struct {
	RunID       string   `json:"run_id"`
	Description string   `json:"description,omitempty"`
	Listed      int      `json:"listed"`
	Kept        int      `json:"kept"`
	Deleted     []string `json:"deleted"`
	// Planned holds the deletion candidates of a dry run.
	Planned []string `json:"planned,omitempty"`
}

type Rotator struct {
	api   SnapshotAPI
	pre   PreCommand
	audit AuditSink
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

func New(api SnapshotAPI, pre PreCommand, audit AuditSink, log *zap.Logger) *Rotator {
	return &Rotator{
		api:   api,
		pre:   pre,
		audit: audit,
		log:   log,
		now:   time.Now,
		newID: core.NewID,
	}
}

// Run executes the steps strictly in order and stops at the first failure.
// A failed deletion aborts the remaining ones.
func (r *Rotator) Run(ctx context.Context, job Job) (Result, error) {
	res := Result{RunID: r.newID(), Deleted: []string{}}
	log := observability.RunLogger(r.log, res.RunID, job.Prefix, job.VolumeID)
	log.Info("rotation started", zap.Int("retention", job.Retention), zap.Bool("dry_run", job.DryRun))
	r.record(ctx, log, res.RunID, job, core.AuditRunStarted, map[string]any{
		"retention": job.Retention,
		"dry_run":   job.DryRun,
	})

	err := r.run(ctx, log, job, &res)
	if err != nil && ctx.Err() != nil {
		err = core.WrapAppError(core.ErrInternal, "rotation interrupted", errors.Join(ctx.Err(), err), nil)
	}

	observability.RunsTotal.WithLabelValues(resultLabel(err)).Inc()
	finished := map[string]any{"deleted": res.Deleted, "listed": res.Listed}
	if err != nil {
		finished["error"] = err.Error()
		finished["exit_code"] = core.ExitCodeOf(err)
		logFailure(log, err)
	} else {
		observability.LastSuccessTimestamp.Set(float64(r.now().Unix()))
		log.Info("rotation finished",
			zap.Int("listed", res.Listed),
			zap.Int("kept", res.Kept),
			zap.Strings("deleted", res.Deleted),
		)
	}
	r.record(ctx, log, res.RunID, job, core.AuditRunFinished, finished)
	return res, err
}

func (r *Rotator) run(ctx context.Context, log *zap.Logger, job Job, res *Result) error {
	if !job.DryRun {
		if err := r.pre.Run(ctx, job.PreCommand, log); err != nil {
			return err
		}
		if job.PreCommand != "" {
			r.record(ctx, log, res.RunID, job, core.AuditPreCommand, map[string]any{"cmd": job.PreCommand})
		}

		res.Description = core.Description(job.Prefix, r.now())
		log.Info("creating snapshot", zap.String("description", res.Description))
		if err := timed("create", func() error {
			return r.api.CreateSnapshot(ctx, job.VolumeID, res.Description)
		}); err != nil {
			return err
		}
		r.record(ctx, log, res.RunID, job, core.AuditSnapshotCreated, map[string]any{"description": res.Description})
	}

	log.Info("listing snapshots", zap.String("filter", core.DescriptionFilter(job.Prefix)))
	var snapshots []core.SnapshotRecord
	if err := timed("list", func() (err error) {
		snapshots, err = r.api.DescribeSnapshots(ctx, job.Prefix)
		return err
	}); err != nil {
		return err
	}
	observability.SnapshotsListed.Set(float64(len(snapshots)))
	res.Listed = len(snapshots)

	plan := retention.NewPlan(snapshots, job.Retention)
	res.Kept = len(plan.Keep)
	ids := plan.IDs()
	r.record(ctx, log, res.RunID, job, core.AuditSnapshotsListed, map[string]any{
		"listed":     res.Listed,
		"candidates": ids,
	})

	if job.DryRun {
		res.Planned = ids
		log.Info("dry run: would delete", zap.Strings("snapshot_ids", ids))
		return nil
	}

	for _, id := range ids {
		log.Info("deleting outdated snapshot", zap.String("snapshot_id", id))
		if err := timed("delete", func() error {
			return r.api.DeleteSnapshot(ctx, id)
		}); err != nil {
			return err
		}
		observability.SnapshotsDeletedTotal.Inc()
		res.Deleted = append(res.Deleted, id)
		r.record(ctx, log, res.RunID, job, core.AuditSnapshotDeleted, map[string]any{"snapshot_id": id})
	}
	return nil
}

func timed(step string, fn func() error) error {
	start := time.Now()
	err := fn()
	observability.StepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
	return err
}

// record writes an audit event. Audit failures are logged and never fail a run.
func (r *Rotator) record(ctx context.Context, log *zap.Logger, runID string, job Job, action core.AuditAction, payload map[string]any) {
	if r.audit == nil {
		return
	}
	body, _ := json.Marshal(payload)
	_, err := r.audit.Record(context.WithoutCancel(ctx), core.AuditEvent{
		RunID:    runID,
		Prefix:   job.Prefix,
		VolumeID: job.VolumeID,
		Action:   action,
		Payload:  body,
	})
	if err != nil {
		log.Warn("audit write failed", zap.String("action", string(action)), zap.Error(err))
	}
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(core.CodeOf(err))
}

func logFailure(log *zap.Logger, err error) {
	fields := []zap.Field{zap.String("code", string(core.CodeOf(err))), zap.Error(err)}
	var appErr *core.AppError
	if errors.As(err, &appErr) && appErr.Output != "" {
		fields = append(fields, zap.String("output", appErr.Output))
	}
	log.Error("rotation failed", fields...)
}
