package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// ResultRepository implements contracts.ResultStore on PostgreSQL, persisting
// the grouped output document as jsonb. The engine itself never touches this;
// commands, jobs and handlers do.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new result repository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// SaveDocument upserts the computed document and status map for an event.
func (r *ResultRepository) SaveDocument(ctx context.Context, result *contracts.EventResult) error {
	document, err := json.Marshal(result.Document)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	statuses, err := json.Marshal(result.Statuses)
	if err != nil {
		return fmt.Errorf("marshal statuses: %w", err)
	}

	query := `
		INSERT INTO metric_documents (ticker, event_date, document, statuses, computed_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (ticker, event_date)
		DO UPDATE SET document = EXCLUDED.document,
		              statuses = EXCLUDED.statuses,
		              computed_at = EXCLUDED.computed_at
	`

	if _, err := r.pool.Exec(ctx, query, result.Ticker, result.EventDate, document, statuses); err != nil {
		return fmt.Errorf("save metric document: %w", err)
	}
	return nil
}

// GetDocument retrieves the computed document for an event.
func (r *ResultRepository) GetDocument(ctx context.Context, ticker string, eventDate time.Time) (*contracts.EventResult, error) {
	query := `
		SELECT ticker, event_date, document, statuses
		FROM metric_documents
		WHERE ticker = $1 AND event_date = $2
	`

	var result contracts.EventResult
	var document, statuses []byte
	err := r.pool.QueryRow(ctx, query, ticker, eventDate).Scan(
		&result.Ticker, &result.EventDate, &document, &statuses,
	)
	if err != nil {
		return nil, fmt.Errorf("get metric document: %w", err)
	}

	if err := json.Unmarshal(document, &result.Document); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	if err := json.Unmarshal(statuses, &result.Statuses); err != nil {
		return nil, fmt.Errorf("unmarshal statuses: %w", err)
	}
	return &result, nil
}
