package mitigate

import (
	"context"
	"log/slog"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// AlertSink delivers alerts to an external channel. Fire-and-forget:
// failures are counted by the dispatcher, never retried.
type AlertSink interface {
	SendAlert(ctx context.Context, alert domain.Alert) error
}

// RelaySink submits bundles to a private relay for a chain.
type RelaySink interface {
	SubmitBundle(ctx context.Context, chainID string, bundle domain.Bundle) error
}

// LogAlertSink writes alerts to the structured log. The default sink when
// no external channel is configured.
type LogAlertSink struct{}

// SendAlert implements AlertSink.
func (LogAlertSink) SendAlert(ctx context.Context, alert domain.Alert) error {
	slog.Warn("ALERT "+alert.Message,
		"kind", alert.Kind,
		"severity", alert.Severity,
		"details", alert.Details,
	)
	return nil
}

// LogRelaySink records bundle submissions in the log without a live relay
// connection. Used when no relay endpoint is configured and in tests.
type LogRelaySink struct{}

// SubmitBundle implements RelaySink.
func (LogRelaySink) SubmitBundle(ctx context.Context, chainID string, bundle domain.Bundle) error {
	slog.Info("Bundle submitted",
		"chain", chainID,
		"bundle", bundle.ID,
		"target_block", bundle.TargetBlock,
		"txs", len(bundle.TxHashes),
	)
	return nil
}
