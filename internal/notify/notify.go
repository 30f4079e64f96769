// Package notify delivers operator-facing messages about ledger events.
package notify

import (
	"context"

	"go.uber.org/zap"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notifier tells an operator something happened that needs attention.
type Notifier interface {
	Notify(ctx context.Context, severity Severity, message string, fields ...zap.Field)
}

type logNotifier struct {
	log *zap.Logger
}

// NewLogNotifier writes notifications to the structured log, tagged so they
// can be routed by the log pipeline.
func NewLogNotifier(log *zap.Logger) Notifier {
	return &logNotifier{log: log.Named("notify")}
}

func (n *logNotifier) Notify(_ context.Context, severity Severity, message string, fields ...zap.Field) {
	fields = append(fields, zap.String("severity", string(severity)))
	switch severity {
	case SeverityError:
		n.log.Error(message, fields...)
	case SeverityWarning:
		n.log.Warn(message, fields...)
	default:
		n.log.Info(message, fields...)
	}
}
