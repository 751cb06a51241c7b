package contracts

import (
	"context"
	"time"
)

// ConsensusEventStore supplies consensus events for the resolver.
// Lookups are by unique event id only: multiple analysts can publish on the
// same ticker on the same date, so a (ticker, eventDate) lookup would pick an
// arbitrary row. The interface deliberately offers no such method.
type ConsensusEventStore interface {
	// GetByID returns exactly the row identified by id.
	GetByID(ctx context.Context, id string) (*ConsensusEvent, error)

	// ListPartition returns the complete partition, ordered by event date
	// descending (ties broken by id). Resolution must only run over this
	// full list, never a partial one.
	ListPartition(ctx context.Context, key PartitionKey) ([]ConsensusEvent, error)

	// ListPartitionKeys returns every distinct partition key, for backfills.
	ListPartitionKeys(ctx context.Context) ([]PartitionKey, error)

	// SaveResolved persists the comparison columns for resolved events.
	SaveResolved(ctx context.Context, events []ResolvedConsensusEvent) error
}

// ResultStore persists the grouped output documents produced by the engine.
type ResultStore interface {
	SaveDocument(ctx context.Context, result *EventResult) error
	GetDocument(ctx context.Context, ticker string, eventDate time.Time) (*EventResult, error)
}

// RecordSource materializes raw quarterly records for a ticker. The engine
// never calls this; commands and scheduled jobs do, then hand the engine a
// fully materialized EventContext.
type RecordSource interface {
	// FetchQuarterly returns up to lookback quarters, most recent first.
	FetchQuarterly(ctx context.Context, ticker string, lookback int) ([]QuarterlyRecord, error)
}
