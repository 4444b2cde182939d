package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// ArchiveRepo persists detections and venue incidents for offline review.
// The engine never reads these back; operators query them directly.
type ArchiveRepo struct {
	db *DB
}

// NewArchiveRepo creates an archive repository.
func NewArchiveRepo(db *DB) *ArchiveRepo {
	return &ArchiveRepo{db: db}
}

// SaveDetection inserts one detection event.
func (r *ArchiveRepo) SaveDetection(ctx context.Context, ev domain.DetectionEvent) error {
	query := `
		INSERT INTO detections (
			id, kind, severity, chain_id, victim_hash, attacker, victim,
			estimated_profit, gas_price_delta, confidence, mitigation, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		ev.ID, string(ev.Kind), string(ev.Severity), ev.ChainID,
		ev.VictimHash, ev.Attacker, ev.Victim,
		ev.EstimatedProfit, ev.GasPriceDelta, ev.Confidence,
		ev.Mitigation, ev.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("insert detection: %w", err)
	}
	return nil
}

// SaveIncident inserts one venue incident with its applied strategies.
func (r *ArchiveRepo) SaveIncident(ctx context.Context, inc domain.VenueIncident) error {
	strategies, err := json.Marshal(inc.Strategies)
	if err != nil {
		return fmt.Errorf("marshal strategies: %w", err)
	}

	query := `
		INSERT INTO venue_incidents (
			id, venue, attack_type, severity, response_time_ms, failure_rate,
			error_count, strategies, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	_, err = r.db.ExecContext(ctx, query,
		inc.ID, inc.Venue, string(inc.AttackType), string(inc.Severity),
		inc.Sample.ResponseTime.Milliseconds(), inc.Sample.FailureRate,
		inc.Sample.ErrorCount, strategies, inc.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}
