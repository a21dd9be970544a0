package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/devicebulk/internal/logging"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionInsert         AuditAction = "bulk_insert"
	ActionUpdate         AuditAction = "bulk_update"
	ActionDelete         AuditAction = "bulk_delete"
	ActionDefaultsEdit   AuditAction = "defaults_edit"
	ActionTemplatesEdit  AuditAction = "child_templates_edit"
	ActionVisibilityEdit AuditAction = "visibility_edit"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEntry records one batch or settings change.
type AuditEntry struct {
	BatchID   string        `json:"batchId,omitempty"`
	Action    AuditAction   `json:"action"`
	Severity  AuditSeverity `json:"severity"`
	Table     string        `json:"table"`
	Source    string        `json:"source,omitempty"`
	Supplied  int           `json:"supplied"`
	Applied   int           `json:"applied"`
	Skipped   int           `json:"skipped"`
	Writes    []TableWrite  `json:"writes,omitempty"`
	Error     string        `json:"error,omitempty"`
	IPAddress string        `json:"ipAddress,omitempty"`
	UserAgent string        `json:"userAgent,omitempty"`
	Actor     string        `json:"actor,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// AuditSink persists audit entries. Failures are logged by the caller and
// never fail the batch being audited.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
	Close()
}

func actionFor(op Operation) AuditAction {
	switch op {
	case OpInsert:
		return ActionInsert
	case OpUpdate:
		return ActionUpdate
	default:
		return ActionDelete
	}
}

// auditSeverity returns the appropriate severity for an action.
func auditSeverity(action AuditAction, failed bool) AuditSeverity {
	switch {
	case failed:
		return SeverityCritical
	case action == ActionDelete:
		return SeverityHigh
	case action == ActionInsert, action == ActionUpdate:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// newAuditEntry builds the entry for a finished batch.
func newAuditEntry(ctx context.Context, root string, res *Result, runErr error) AuditEntry {
	meta := RequestMetaFrom(ctx)
	action := actionFor(res.Operation)

	entry := AuditEntry{
		BatchID:   res.BatchID,
		Action:    action,
		Severity:  auditSeverity(action, runErr != nil),
		Table:     root,
		Source:    res.Source,
		Supplied:  res.Supplied,
		Applied:   res.Applied,
		Skipped:   res.Skipped,
		Writes:    res.Writes,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Actor:     meta.Actor,
		CreatedAt: time.Now().UTC(),
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	return entry
}

// LogAuditSink writes audit entries to the structured log. It is the sink
// used when no audit database is configured.
type LogAuditSink struct{}

func (LogAuditSink) Record(ctx context.Context, e AuditEntry) error {
	level := slog.LevelInfo
	if e.Error != "" {
		level = slog.LevelError
	}
	logging.FromContext(ctx).Log(ctx, level, "audit",
		"batch_id", e.BatchID,
		"action", e.Action,
		"severity", e.Severity,
		"table", e.Table,
		"source", e.Source,
		"supplied", e.Supplied,
		"applied", e.Applied,
		"skipped", e.Skipped,
		"written", len(e.Writes),
		"actor", e.Actor,
		"ip", e.IPAddress,
		"error", e.Error,
	)
	return nil
}

func (LogAuditSink) Close() {}
