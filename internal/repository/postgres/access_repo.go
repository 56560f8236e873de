package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/xela07ax/ovcare-portal/internal/audit"
)

// WriteBatch реализует audit.StorageInterface через COPY
func (r *PortalRepo) WriteBatch(ctx context.Context, events []audit.AccessEvent) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		var details []byte
		if len(e.Details) > 0 {
			b, err := json.Marshal(e.Details)
			if err != nil {
				return fmt.Errorf("postgres: marshal access details: %w", err)
			}
			details = b
		}
		rows = append(rows, []any{
			e.ID, e.TraceID, e.ActorID, e.ActorRole, e.PatientID,
			e.Action, e.Status, details, e.Timestamp,
		})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"access_log"},
		[]string{"id", "trace_id", "actor_id", "actor_role", "patient_id", "action", "status", "details", "occurred_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to write access batch: %w", err)
	}
	return nil
}
