package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// ConsensusStore implements contracts.ConsensusEventStore on PostgreSQL.
// There is intentionally no query by (ticker, event_date): same-day
// publications by different analysts are distinct rows and must only ever be
// addressed by id or by full partition.
type ConsensusStore struct {
	pool *pgxpool.Pool
}

// NewConsensusStore creates a new consensus event store.
func NewConsensusStore(pool *pgxpool.Pool) *ConsensusStore {
	return &ConsensusStore{pool: pool}
}

// GetByID returns exactly the row identified by id.
func (s *ConsensusStore) GetByID(ctx context.Context, id string) (*contracts.ConsensusEvent, error) {
	query := `
		SELECT id, ticker, event_date, analyst_name, analyst_company, price_target, price_when_posted
		FROM consensus_events
		WHERE id = $1
	`

	var ev contracts.ConsensusEvent
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&ev.ID, &ev.Ticker, &ev.EventDate, &ev.AnalystName, &ev.AnalystCompany,
		&ev.PriceTarget, &ev.PriceWhenPosted,
	)
	if err != nil {
		return nil, fmt.Errorf("get consensus event %s: %w", id, err)
	}
	return &ev, nil
}

// ListPartition returns the complete partition, newest first.
func (s *ConsensusStore) ListPartition(ctx context.Context, key contracts.PartitionKey) ([]contracts.ConsensusEvent, error) {
	query := `
		SELECT id, ticker, event_date, analyst_name, analyst_company, price_target, price_when_posted
		FROM consensus_events
		WHERE ticker = $1 AND analyst_name = $2 AND analyst_company = $3
		ORDER BY event_date DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, key.Ticker, key.AnalystName, key.AnalystCompany)
	if err != nil {
		return nil, fmt.Errorf("list partition: %w", err)
	}
	defer rows.Close()

	var events []contracts.ConsensusEvent
	for rows.Next() {
		var ev contracts.ConsensusEvent
		if err := rows.Scan(
			&ev.ID, &ev.Ticker, &ev.EventDate, &ev.AnalystName, &ev.AnalystCompany,
			&ev.PriceTarget, &ev.PriceWhenPosted,
		); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListPartitionKeys returns every distinct partition key.
func (s *ConsensusStore) ListPartitionKeys(ctx context.Context) ([]contracts.PartitionKey, error) {
	query := `
		SELECT DISTINCT ticker, analyst_name, analyst_company
		FROM consensus_events
		ORDER BY ticker, analyst_name, analyst_company
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list partition keys: %w", err)
	}
	defer rows.Close()

	var keys []contracts.PartitionKey
	for rows.Next() {
		var key contracts.PartitionKey
		if err := rows.Scan(&key.Ticker, &key.AnalystName, &key.AnalystCompany); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// SaveResolved persists the comparison columns in one batch.
func (s *ConsensusStore) SaveResolved(ctx context.Context, events []contracts.ResolvedConsensusEvent) error {
	if len(events) == 0 {
		return nil
	}

	query := `
		UPDATE consensus_events
		SET price_target_prev = $2,
		    price_when_posted_prev = $3,
		    direction = $4,
		    delta = $5,
		    delta_pct = $6,
		    resolved_at = NOW()
		WHERE id = $1
	`

	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(query, ev.ID, ev.PriceTargetPrev, ev.PriceWhenPostedPrev, ev.Direction, ev.Delta, ev.DeltaPct)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save resolved events: %w", err)
		}
	}
	return nil
}
