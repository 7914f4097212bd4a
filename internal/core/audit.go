package core

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditRunStarted      AuditAction = "run_started"
	AuditPreCommand      AuditAction = "precommand"
	AuditSnapshotCreated AuditAction = "snapshot_created"
	AuditSnapshotsListed AuditAction = "snapshots_listed"
	AuditSnapshotDeleted AuditAction = "snapshot_deleted"
	AuditRunFinished     AuditAction = "run_finished"
)

type AuditEvent struct {
	EventID  int64           `json:"event_id"`
	Ts       time.Time       `json:"ts"`
	RunID    string          `json:"run_id"`
	Prefix   string          `json:"prefix"`
	VolumeID string          `json:"volume_id"`
	Action   AuditAction     `json:"action"`
	Payload  json.RawMessage `json:"payload"`
}
