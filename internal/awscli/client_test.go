package awscli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lzjever/ec2-rsnapshot/internal/core"
)

func TestClient_CreateSnapshot(t *testing.T) {
	fr := &fakeRunner{}
	c := New(Options{}, fr)

	require.NoError(t, c.CreateSnapshot(context.Background(), "vol-1", "srv1/daily/2024-01-02/03:04:05"))

	require.Len(t, fr.calls, 1)
	assert.Equal(t, "aws ec2 create-snapshot --volume-id vol-1 --description srv1/daily/2024-01-02/03:04:05", fr.calls[0].String())
}

func TestClient_CreateSnapshotFailure(t *testing.T) {
	fr := &fakeRunner{
		outputs: map[string]string{"create-snapshot": "An error occurred (InvalidVolume.NotFound)"},
		fail:    map[string]bool{"create-snapshot": true},
	}
	err := New(Options{}, fr).CreateSnapshot(context.Background(), "vol-x", "p/ts")

	require.Error(t, err)
	assert.Equal(t, 2, core.ExitCodeOf(err))
	var appErr *core.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Output, "InvalidVolume.NotFound")
}

func TestClient_GlobalFlags(t *testing.T) {
	c := New(Options{Bin: "/opt/aws", Region: "eu-central-1", Profile: "backup"}, &fakeRunner{})

	assert.Equal(t,
		[]string{"ec2", "delete-snapshot", "--snapshot-id", "snap-1", "--region", "eu-central-1", "--profile", "backup"},
		c.DeleteSnapshotArgs("snap-1"))
	assert.Equal(t,
		[]string{"ec2", "describe-snapshots", "--filters", "Name=description,Values=srv 1/daily/*", "--output", "json", "--region", "eu-central-1", "--profile", "backup"},
		c.DescribeSnapshotsArgs("srv 1/daily"))
}

func TestClient_DescribeSnapshots(t *testing.T) {
	fr := &fakeRunner{outputs: map[string]string{"describe-snapshots": `{
		"Snapshots": [
			{"SnapshotId": "snap-b", "StartTime": "2024-01-02T00:00:00.000Z", "Description": "p/2024-01-02/00:00:00", "VolumeId": "vol-1"},
			{"SnapshotId": "snap-a", "StartTime": "2024-01-01T00:00:00.000Z", "Description": "p/2024-01-01/00:00:00"}
		]
	}`}}

	snaps, err := New(Options{}, fr).DescribeSnapshots(context.Background(), "p")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "snap-b", snaps[0].SnapshotID)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), snaps[1].StartTime.UTC())
	assert.Equal(t, "p/2024-01-01/00:00:00", snaps[1].Description)
}

func TestClient_DescribeSnapshotsCommandFailure(t *testing.T) {
	fr := &fakeRunner{fail: map[string]bool{"describe-snapshots": true}}
	_, err := New(Options{}, fr).DescribeSnapshots(context.Background(), "p")
	assert.Equal(t, 3, core.ExitCodeOf(err))
}

func TestClient_DeleteSnapshotFailure(t *testing.T) {
	fr := &fakeRunner{fail: map[string]bool{"delete-snapshot": true}}
	err := New(Options{}, fr).DeleteSnapshot(context.Background(), "snap-1")
	assert.Equal(t, 6, core.ExitCodeOf(err))
	assert.ErrorContains(t, err, "snap-1")
}

func TestParseDescribeOutput(t *testing.T) {
	tests := []struct {
		name string
		body string
		code core.ErrorCode
		n    int
	}{
		{name: "not json", body: "Unknown options: --bogus", code: core.ErrListParseFailed},
		{name: "truncated", body: `{"Snapshots": [`, code: core.ErrListParseFailed},
		{name: "bad start time", body: `{"Snapshots": [{"SnapshotId": "s", "StartTime": "yesterday"}]}`, code: core.ErrListParseFailed},
		{name: "snapshots not a list", body: `{"Snapshots": "nope"}`, code: core.ErrListParseFailed},
		{name: "missing field", body: `{"NextToken": "abc"}`, code: core.ErrListMissingSnapshots},
		{name: "null field", body: `{"Snapshots": null}`, code: core.ErrListMissingSnapshots},
		{name: "false field", body: `{"Snapshots": false}`, code: core.ErrListMissingSnapshots},
		{name: "zero field", body: `{"Snapshots": 0}`, code: core.ErrListMissingSnapshots},
		{name: "empty string field", body: `{"Snapshots": ""}`, code: core.ErrListMissingSnapshots},
		{name: "true field", body: `{"Snapshots": true}`, code: core.ErrListParseFailed},
		{name: "top-level array", body: `[]`, code: core.ErrListMissingSnapshots},
		{name: "empty list", body: `{"Snapshots": []}`, n: 0},
		{name: "one", body: `{"Snapshots": [{"SnapshotId": "s", "StartTime": "2024-05-01T10:00:00+00:00"}]}`, n: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snaps, err := ParseDescribeOutput([]byte(tt.body))
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, core.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, snaps)
			assert.Len(t, snaps, tt.n)
		})
	}
}
