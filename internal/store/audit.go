package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lzjever/ec2-rsnapshot/internal/core"
)

//go:embed schema.sql
var schemaSQL string

// AuditStore appends rotation events to rsnapshot.audit_log.
type AuditStore struct {
	pool *pgxpool.Pool
}

func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Migrate creates the schema if it does not exist yet.
func (s *AuditStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Record inserts ev and returns it with EventID and Ts filled in.
func (s *AuditStore) Record(ctx context.Context, ev core.AuditEvent) (core.AuditEvent, error) {
	payload := ev.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO rsnapshot.audit_log (run_id, prefix, volume_id, action, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING event_id, ts`,
		ev.RunID, ev.Prefix, ev.VolumeID, string(ev.Action), []byte(payload),
	)
	if err := row.Scan(&ev.EventID, &ev.Ts); err != nil {
		return core.AuditEvent{}, fmt.Errorf("insert audit: %w", err)
	}
	ev.Payload = payload
	return ev, nil
}

// ListRun returns the events of one run in insertion order.
func (s *AuditStore) ListRun(ctx context.Context, runID string) ([]core.AuditEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, ts, run_id, prefix, volume_id, action, payload
		FROM rsnapshot.audit_log
		WHERE run_id = $1
		ORDER BY event_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.AuditEvent, error) {
		var (
			ev      core.AuditEvent
			action  string
			payload []byte
		)
		err := row.Scan(&ev.EventID, &ev.Ts, &ev.RunID, &ev.Prefix, &ev.VolumeID, &action, &payload)
		ev.Action = core.AuditAction(action)
		ev.Payload = payload
		return ev, err
	})
}
