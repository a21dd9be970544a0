package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "audit_ip"
	ctxKeyUserAgent contextKey = "audit_ua"
	ctxKeyActor     contextKey = "audit_actor"
)

// RequestMeta identifies who submitted a batch, for the audit trail.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	Actor     string // CLI user or authenticated principal
}

// WithRequestMeta stores m in ctx. Empty fields are not stored.
func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	if m.IPAddress != "" {
		ctx = context.WithValue(ctx, ctxKeyIPAddress, m.IPAddress)
	}
	if m.UserAgent != "" {
		ctx = context.WithValue(ctx, ctxKeyUserAgent, m.UserAgent)
	}
	if m.Actor != "" {
		ctx = context.WithValue(ctx, ctxKeyActor, m.Actor)
	}
	return ctx
}

// RequestMetaFrom extracts what WithRequestMeta stored.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	var m RequestMeta
	m.IPAddress, _ = ctx.Value(ctxKeyIPAddress).(string)
	m.UserAgent, _ = ctx.Value(ctxKeyUserAgent).(string)
	m.Actor, _ = ctx.Value(ctxKeyActor).(string)
	return m
}
