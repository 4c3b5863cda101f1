package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"sales_portal_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditEntry struct {
	ID          int64
	Action      string
	ActorUserID int64
	ObjectType  string
	ObjectID    int64
	Diff        map[string]any
	CreatedAt   time.Time
}

// AuditLog is the append-only mutation trail. Record never fails the calling
// operation; a write error is logged and swallowed.
type AuditLog struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewAuditLog(pool *pgxpool.Pool, log *logger.Logger) *AuditLog {
	return &AuditLog{pool: pool, log: log}
}

func (a *AuditLog) Record(ctx context.Context, action string, actorUserID int64, objectType string, objectID int64, diff map[string]any) {
	payload := []byte("{}")
	if diff != nil {
		encoded, err := json.Marshal(diff)
		if err != nil {
			a.log.Error("audit diff not serializable", "error", err)
		} else {
			payload = encoded
		}
	}

	_, err := a.pool.Exec(ctx, `
		INSERT INTO audit_log (action, actor_user_id, object_type, object_id, diff)
		VALUES ($1, $2, $3, $4, $5)
	`, action, actorUserID, objectType, objectID, payload)
	if err != nil {
		a.log.Error("audit write failed", "error", err, "action", action, "object_type", objectType)
	}
}

type AuditListParams struct {
	ObjectType *string
	ActorID    *int64
	Limit      int
	Offset     int
}

func (a *AuditLog) List(ctx context.Context, params AuditListParams) ([]AuditEntry, error) {
	query := `SELECT id, action, actor_user_id, object_type, object_id, diff, created_at FROM audit_log WHERE 1=1`
	args := []any{}
	idx := 1

	if params.ObjectType != nil {
		query += ` AND object_type = $` + strconv.Itoa(idx)
		args = append(args, *params.ObjectType)
		idx++
	}
	if params.ActorID != nil {
		query += ` AND actor_user_id = $` + strconv.Itoa(idx)
		args = append(args, *params.ActorID)
		idx++
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(idx) + ` OFFSET $` + strconv.Itoa(idx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]AuditEntry, 0)
	for rows.Next() {
		var entry AuditEntry
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.ActorUserID, &entry.ObjectType,
			&entry.ObjectID, &entry.Diff, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
