package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terrastories/server/internal/audit"
)

// NewAuditSink returns an audit sink that appends entries to the audit_logs
// table. Inserts run with a short deadline so a slow database cannot stall
// the request path that emitted the entry.
func NewAuditSink(pool *pgxpool.Pool) audit.Sink {
	return func(entry audit.Entry) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var details []byte
		if entry.Details != nil {
			encoded, err := json.Marshal(entry.Details)
			if err != nil {
				return fmt.Errorf("encode audit details: %w", err)
			}
			details = encoded
		}

		_, err := pool.Exec(ctx, `
INSERT INTO audit_logs (occurred_at, action, resource, resource_id, admin_user_id, admin_email, success, reason, details, ip_address, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`,
			entry.Timestamp,
			entry.Action,
			entry.Resource,
			entry.ResourceID,
			entry.AdminUserID,
			entry.AdminEmail,
			entry.Success,
			entry.Reason,
			details,
			entry.IPAddress,
			entry.UserAgent,
		)
		if err != nil {
			return fmt.Errorf("insert audit log: %w", err)
		}
		return nil
	}
}
