package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/netip"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// auditSchema creates the audit table on first use.
const auditSchema = `
CREATE TABLE IF NOT EXISTS bulk_audit_log (
    id            BIGSERIAL PRIMARY KEY,
    batch_id      UUID,
    action        TEXT        NOT NULL,
    severity      TEXT        NOT NULL,
    table_name    TEXT        NOT NULL,
    source        TEXT,
    supplied      INTEGER     NOT NULL DEFAULT 0,
    applied       INTEGER     NOT NULL DEFAULT 0,
    skipped       INTEGER     NOT NULL DEFAULT 0,
    writes        JSONB,
    error         TEXT,
    ip_address    INET,
    user_agent    TEXT,
    actor         TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS bulk_audit_log_created_at_idx ON bulk_audit_log (created_at DESC);
`

const insertAudit = `
INSERT INTO bulk_audit_log
    (batch_id, action, severity, table_name, source, supplied, applied, skipped,
     writes, error, ip_address, user_agent, actor, created_at)
VALUES
    ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, NULLIF($10, ''), $11, NULLIF($12, ''), NULLIF($13, ''), $14)`

// PgAuditSink stores audit entries in PostgreSQL.
type PgAuditSink struct {
	pool *pgxpool.Pool
}

// PgAuditOptions configures the connection pool.
type PgAuditOptions struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// NewPgAuditSink connects, verifies the connection and ensures the audit table exists.
func NewPgAuditSink(ctx context.Context, opts PgAuditOptions) (*PgAuditSink, error) {
	poolCfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse audit database url: %w", err)
	}
	if opts.MaxConns > 0 {
		poolCfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		poolCfg.MinConns = opts.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect audit database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}

	sink := &PgAuditSink{pool: pool}
	if err := sink.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return sink, nil
}

// EnsureSchema creates the audit table and index if missing.
func (s *PgAuditSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}

// Record inserts one entry.
func (s *PgAuditSink) Record(ctx context.Context, e AuditEntry) error {
	var writes []byte
	if len(e.Writes) > 0 {
		var err error
		if writes, err = json.Marshal(e.Writes); err != nil {
			writes = nil
		}
	}

	var batchID any
	if e.BatchID != "" {
		batchID = e.BatchID
	}

	_, err := s.pool.Exec(ctx, insertAudit,
		batchID, string(e.Action), string(e.Severity), e.Table, e.Source,
		e.Supplied, e.Applied, e.Skipped, writes, e.Error,
		parseIP(e.IPAddress), e.UserAgent, e.Actor, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest first.
func (s *PgAuditSink) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
SELECT COALESCE(batch_id::text, ''), action, severity, table_name, COALESCE(source, ''),
       supplied, applied, skipped, writes, COALESCE(error, ''),
       COALESCE(host(ip_address), ''), COALESCE(user_agent, ''), COALESCE(actor, ''), created_at
FROM bulk_audit_log
ORDER BY created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AuditEntry, error) {
		var (
			e      AuditEntry
			writes []byte
		)
		err := row.Scan(&e.BatchID, &e.Action, &e.Severity, &e.Table, &e.Source,
			&e.Supplied, &e.Applied, &e.Skipped, &writes, &e.Error,
			&e.IPAddress, &e.UserAgent, &e.Actor, &e.CreatedAt)
		if err != nil {
			return e, err
		}
		if len(writes) > 0 {
			_ = json.Unmarshal(writes, &e.Writes)
		}
		return e, nil
	})
}

// Close closes the pool.
func (s *PgAuditSink) Close() {
	s.pool.Close()
}

// parseIP strips a port and parses the address; unparsable input becomes NULL.
func parseIP(s string) *netip.Addr {
	if s == "" {
		return nil
	}
	host := s
	if h, _, err := net.SplitHostPort(s); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil
	}
	return &addr
}
