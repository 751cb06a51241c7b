package consensus

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// Resolver links each consensus event to the same analyst's previous
// publication on the same ticker and derives the revision signal.
type Resolver struct {
	store contracts.ConsensusEventStore
	log   zerolog.Logger
}

// NewResolver creates a resolver over a consensus event store.
func NewResolver(store contracts.ConsensusEventStore, log zerolog.Logger) *Resolver {
	return &Resolver{
		store: store,
		log:   log.With().Str("component", "consensus.resolver").Logger(),
	}
}

// ResolvePartition links one complete partition. Events are sorted by event
// date descending (ties by id, so two same-day publications stay distinct
// rows); the previous event of index i is index i+1. The input must be the
// whole partition: resolving a partial one would fabricate "first ever"
// events.
func ResolvePartition(events []contracts.ConsensusEvent) []contracts.ResolvedConsensusEvent {
	sorted := make([]contracts.ConsensusEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].EventDate.Equal(sorted[j].EventDate) {
			return sorted[i].EventDate.After(sorted[j].EventDate)
		}
		return sorted[i].ID < sorted[j].ID
	})

	resolved := make([]contracts.ResolvedConsensusEvent, len(sorted))
	for i, ev := range sorted {
		r := contracts.ResolvedConsensusEvent{ConsensusEvent: ev}

		if i+1 < len(sorted) {
			prev := sorted[i+1]
			r.PriceTargetPrev = ptr(prev.PriceTarget)
			r.PriceWhenPostedPrev = ptr(prev.PriceWhenPosted)

			delta := ev.PriceTarget - prev.PriceTarget
			r.Delta = ptr(delta)

			switch {
			case ev.PriceTarget > prev.PriceTarget:
				d := contracts.DirectionUp
				r.Direction = &d
			case ev.PriceTarget < prev.PriceTarget:
				d := contracts.DirectionDown
				r.Direction = &d
			}

			if prev.PriceTarget != 0 {
				r.DeltaPct = ptr(delta / prev.PriceTarget * 100)
			}
		}

		resolved[i] = r
	}

	return resolved
}

// PartitionAll groups events by (ticker, analyst name, analyst company).
func PartitionAll(events []contracts.ConsensusEvent) map[contracts.PartitionKey][]contracts.ConsensusEvent {
	groups := make(map[contracts.PartitionKey][]contracts.ConsensusEvent)
	for _, ev := range events {
		key := ev.Partition()
		groups[key] = append(groups[key], ev)
	}
	return groups
}

// Resolve loads the full partition from the store, resolves it and persists
// the comparison columns. The store's ListPartition returns every event of
// the partition, which is the barrier: no event's signal is final until all
// of its partition has been loaded and linked.
func (r *Resolver) Resolve(ctx context.Context, key contracts.PartitionKey) ([]contracts.ResolvedConsensusEvent, error) {
	events, err := r.store.ListPartition(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list partition: %w", err)
	}
	if len(events) == 0 {
		return nil, nil
	}

	resolved := ResolvePartition(events)

	if err := r.store.SaveResolved(ctx, resolved); err != nil {
		return nil, fmt.Errorf("save resolved partition: %w", err)
	}

	r.log.Debug().
		Str("ticker", key.Ticker).
		Str("analyst", key.AnalystName).
		Str("company", key.AnalystCompany).
		Int("events", len(resolved)).
		Msg("partition resolved")

	return resolved, nil
}

// ResolveAll backfills every partition known to the store.
func (r *Resolver) ResolveAll(ctx context.Context) (int, error) {
	keys, err := r.store.ListPartitionKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list partition keys: %w", err)
	}

	total := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		resolved, err := r.Resolve(ctx, key)
		if err != nil {
			return total, err
		}
		total += len(resolved)
	}

	r.log.Info().
		Int("partitions", len(keys)).
		Int("events", total).
		Msg("consensus backfill completed")

	return total, nil
}

func ptr(v float64) *float64 {
	return &v
}
