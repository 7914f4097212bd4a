package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lzjever/ec2-rsnapshot/internal/awscli"
	"github.com/lzjever/ec2-rsnapshot/internal/config"
	"github.com/lzjever/ec2-rsnapshot/internal/core"
	"github.com/lzjever/ec2-rsnapshot/internal/observability"
	"github.com/lzjever/ec2-rsnapshot/internal/quiesce"
	"github.com/lzjever/ec2-rsnapshot/internal/rotate"
	"github.com/lzjever/ec2-rsnapshot/internal/runner"
	"github.com/lzjever/ec2-rsnapshot/internal/store"
)

const longHelp = `AWS EC2 Snapshot Backup

Creates a snapshot of a volume and deletes the outdated snapshots
sharing the same prefix once the retention number is exceeded.

Params:
  snapshot-prefix:    something like srv1.domain.com/daily/data
  snapshot-retention: number of snapshots to keep
  volume-id:          volume id to make snapshot from it
  run-before:         run command before, perfect to sync filesystem before snapshot

Environment variables (read by the aws tool):
  AWS_ACCESS_KEY_ID
  AWS_SECRET_ACCESS_KEY
  AWS_CONFIG_FILE
  AWS_DEFAULT_PROFILE
  AWS_DEFAULT_REGION

Environment variables (read by ec2-rsnapshot):
  RSNAPSHOT_AWS_BIN, RSNAPSHOT_AWS_REGION, RSNAPSHOT_AWS_PROFILE,
  RSNAPSHOT_SHELL, RSNAPSHOT_COMMAND_TIMEOUT, RSNAPSHOT_LOG_LEVEL,
  RSNAPSHOT_LOG_FORMAT, RSNAPSHOT_METRICS_TEXTFILE,
  RSNAPSHOT_PUSHGATEWAY_URL, RSNAPSHOT_DB_DSN`

// auditStore is the audit trail as the command uses it: written by the
// rotation, read back for the json report.
type auditStore interface {
	rotate.AuditSink
	ListRun(ctx context.Context, runID string) ([]core.AuditEvent, error)
}

// deps lets tests replace the process runner and the audit store. Zero
// values use the real ones.
type deps struct {
	Runner runner.Runner
	Stdout io.Writer
	Audit  auditStore
}

type flags struct {
	dryRun    bool
	logLevel  string
	logFormat string
	output    string
}

// report is the --output json document.
type report struct {
	rotate.Result
	Audit []core.AuditEvent `json:"audit,omitempty"`
}

func newRootCmd(d deps) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "ec2-rsnapshot <snapshot-prefix> <snapshot-retention> <volume-id> [run-before]",
		Short:         "Rotate EBS snapshots of a volume under a description prefix",
		Long:          longHelp,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			job, err := parseJob(args)
			if err != nil {
				_ = cmd.Help()
				return err
			}
			if f.output != "text" && f.output != "json" {
				_ = cmd.Help()
				return core.NewAppError(core.ErrUsage, fmt.Sprintf("--output must be text or json, got %q", f.output))
			}
			job.DryRun = f.dryRun
			return runJob(cmd.Context(), cmd, d, f, job)
		},
	}
	if d.Stdout != nil {
		cmd.SetOut(d.Stdout)
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		_ = c.Help()
		return core.WrapAppError(core.ErrUsage, "invalid flags", err, nil)
	})

	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "list snapshots and print the deletion plan without changing anything")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level (overrides RSNAPSHOT_LOG_LEVEL)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "log format, json or console (overrides RSNAPSHOT_LOG_FORMAT)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "result format, text or json")
	return cmd
}

func parseJob(args []string) (rotate.Job, error) {
	if len(args) != 3 && len(args) != 4 {
		return rotate.Job{}, core.NewAppError(core.ErrUsage, fmt.Sprintf("expected 3 or 4 arguments, got %d", len(args)))
	}
	keep, err := strconv.Atoi(args[1])
	if err != nil || keep < 0 {
		return rotate.Job{}, core.NewAppError(core.ErrUsage, fmt.Sprintf("snapshot-retention must be a non-negative integer, got %q", args[1]))
	}
	job := rotate.Job{Prefix: args[0], Retention: keep, VolumeID: args[2]}
	if len(args) == 4 {
		job.PreCommand = args[3]
	}
	return job, nil
}

func runJob(ctx context.Context, cmd *cobra.Command, d deps, f flags, job rotate.Job) error {
	cfg, err := config.Load()
	if err != nil {
		return core.WrapAppError(core.ErrConfig, "invalid configuration", err, nil)
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.logFormat != "" {
		cfg.LogFormat = f.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return core.WrapAppError(core.ErrConfig, "invalid configuration", err, nil)
	}

	log, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return core.WrapAppError(core.ErrConfig, "build logger", err, nil)
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	observability.RegisterAll(reg)

	r := d.Runner
	if r == nil {
		r = &runner.ExecRunner{Timeout: cfg.CommandTimeout, Log: log}
	}

	audit := d.Audit
	if audit == nil && cfg.DBDSN != "" {
		opened, closeFn, err := openAudit(ctx, cfg.DBDSN)
		if err != nil {
			log.Warn("audit store unavailable, continuing without audit", zap.Error(err))
		} else {
			defer closeFn()
			audit = opened
		}
	}

	client := awscli.New(awscli.Options{Bin: cfg.AWSBin, Region: cfg.AWSRegion, Profile: cfg.AWSProfile}, r)
	hook := &quiesce.Hook{Shell: cfg.Shell, Runner: r}

	res, runErr := rotate.New(client, hook, audit, log).Run(ctx, job)

	exporter := observability.Exporter{
		Gatherer:       reg,
		TextfilePath:   cfg.MetricsTextfile,
		PushgatewayURL: cfg.PushgatewayURL,
	}
	if err := exporter.Export(job.Prefix); err != nil {
		log.Warn("metrics export failed", zap.Error(err))
	}

	switch {
	case f.output == "json":
		printReport(ctx, cmd.OutOrStdout(), res, audit, log)
	case runErr == nil && job.DryRun:
		printPlan(cmd.OutOrStdout(), res)
	}
	return runErr
}

func openAudit(ctx context.Context, dsn string) (auditStore, func(), error) {
	pool, err := store.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	audit := store.NewAuditStore(pool)
	if err := audit.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return audit, pool.Close, nil
}

func printPlan(w io.Writer, res rotate.Result) {
	fmt.Fprintf(w, "Snapshots listed: %d\n", res.Listed)
	fmt.Fprintf(w, "Snapshots kept:   %d\n", res.Kept)
	if len(res.Planned) == 0 {
		fmt.Fprintln(w, "Nothing to delete.")
		return
	}
	fmt.Fprintln(w, "Would delete:")
	for _, id := range res.Planned {
		fmt.Fprintf(w, "  %s\n", id)
	}
}

// printReport writes res as JSON, with the run's audit trail when a store is
// configured. A failed read of the trail is logged and the report printed
// without it.
func printReport(ctx context.Context, w io.Writer, res rotate.Result, audit auditStore, log *zap.Logger) {
	rep := report{Result: res}
	if audit != nil {
		events, err := audit.ListRun(context.WithoutCancel(ctx), res.RunID)
		if err != nil {
			log.Warn("read audit trail failed", zap.Error(err))
		} else {
			rep.Audit = events
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		log.Warn("write report failed", zap.Error(err))
	}
}
