// Package awscli drives the aws command-line tool for EBS snapshot operations.
package awscli

import (
	"context"

	"github.com/lzjever/ec2-rsnapshot/internal/core"
	"github.com/lzjever/ec2-rsnapshot/internal/runner"
)

type Options struct {
	Bin     string
	Region  string
	Profile string
}

type Client struct {
	opts   Options
	runner runner.Runner
}

func New(opts Options, r runner.Runner) *Client {
	if opts.Bin == "" {
		opts.Bin = "aws"
	}
	return &Client{opts: opts, runner: r}
}

// CreateSnapshotArgs returns the argv for create-snapshot.
func (c *Client) CreateSnapshotArgs(volumeID, description string) []string {
	return c.withGlobals("ec2", "create-snapshot",
		"--volume-id", volumeID,
		"--description", description,
	)
}

// DescribeSnapshotsArgs returns the argv for listing snapshots under prefix.
func (c *Client) DescribeSnapshotsArgs(prefix string) []string {
	return c.withGlobals("ec2", "describe-snapshots",
		"--filters", "Name=description,Values="+core.DescriptionFilter(prefix),
		"--output", "json",
	)
}

// DeleteSnapshotArgs returns the argv for delete-snapshot.
func (c *Client) DeleteSnapshotArgs(snapshotID string) []string {
	return c.withGlobals("ec2", "delete-snapshot", "--snapshot-id", snapshotID)
}

func (c *Client) CreateSnapshot(ctx context.Context, volumeID, description string) error {
	out, err := c.runner.Run(ctx, c.opts.Bin, c.CreateSnapshotArgs(volumeID, description)...)
	if err != nil {
		return core.WrapAppError(core.ErrCreateFailed, "create-snapshot for "+volumeID+" failed", err, out)
	}
	return nil
}

func (c *Client) DescribeSnapshots(ctx context.Context, prefix string) ([]core.SnapshotRecord, error) {
	out, err := c.runner.Run(ctx, c.opts.Bin, c.DescribeSnapshotsArgs(prefix)...)
	if err != nil {
		return nil, core.WrapAppError(core.ErrListFailed, "describe-snapshots failed", err, out)
	}
	return ParseDescribeOutput(out)
}

func (c *Client) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	out, err := c.runner.Run(ctx, c.opts.Bin, c.DeleteSnapshotArgs(snapshotID)...)
	if err != nil {
		return core.WrapAppError(core.ErrDeleteFailed, "delete-snapshot "+snapshotID+" failed", err, out)
	}
	return nil
}

func (c *Client) withGlobals(args ...string) []string {
	if c.opts.Region != "" {
		args = append(args, "--region", c.opts.Region)
	}
	if c.opts.Profile != "" {
		args = append(args, "--profile", c.opts.Profile)
	}
	return args
}
