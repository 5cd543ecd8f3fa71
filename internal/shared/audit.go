package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Audit actions emitted by the administration modules.
const (
	AuditRoleCreated        = "role.created"
	AuditRoleUpdated        = "role.updated"
	AuditRolePermissionsSet = "role.permissions_set"
	AuditRoleMenusSet       = "role.menus_set"
	AuditPermissionCreated  = "permission.created"
	AuditPermissionToggled  = "permission.toggled"
	AuditMenuCreated        = "menu.created"
	AuditMenuUpdated        = "menu.updated"
	AuditUserRoleAssigned   = "user.role_assigned"
	AuditUserRoleRemoved    = "user.role_removed"
)

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	EventID  string         `json:"event_id"`
	ActorID  int64          `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"at"`
}

// Validate checks the mandatory fields.
func (l AuditLog) Validate() error {
	if l.Action == "" || l.Entity == "" || l.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	return nil
}

// NewAuditLog stamps a fresh event id and timestamp.
func NewAuditLog(actorID int64, action, entity, entityID string, meta map[string]any) AuditLog {
	return AuditLog{
		EventID:  uuid.NewString(),
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
		At:       time.Now().UTC(),
	}
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry. Replayed events with a known event id are ignored.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if err := log.Validate(); err != nil {
		return err
	}
	if log.EventID == "" {
		log.EventID = uuid.NewString()
	}
	if log.Meta == nil {
		log.Meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at any
	if !log.At.IsZero() {
		at = log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (event_id, actor_id, action, entity, entity_id, meta, occurred_at)
VALUES ($1, NULLIF($2::bigint, 0), $3, $4, $5, $6, COALESCE($7::timestamptz, NOW()))
ON CONFLICT (event_id) DO NOTHING`, log.EventID, log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}
