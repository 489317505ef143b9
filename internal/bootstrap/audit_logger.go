package bootstrap

import "context"

// AuditLog is an operational audit event (startup, shutdown, config reload),
// distinct from the per-entry edit history kept by the audit package.
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
