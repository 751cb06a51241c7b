package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5ys-5y5/alsign-sub001/internal/consensus"
	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

func TestConsensusStore_PartitionRoundtrip(t *testing.T) {
	pool := testPool(t)
	s := NewConsensusStore(pool)
	ctx := context.Background()

	seed := []contracts.ConsensusEvent{
		{ID: "it-e1", Ticker: "TEST_CS", EventDate: time.Date(2025, 12, 8, 0, 0, 0, 0, time.UTC), AnalystName: "J. Doe", AnalystCompany: "Big Bank", PriceTarget: 250, PriceWhenPosted: 232},
		{ID: "it-e2", Ticker: "TEST_CS", EventDate: time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC), AnalystName: "J. Doe", AnalystCompany: "Big Bank", PriceTarget: 240, PriceWhenPosted: 228},
		{ID: "it-e3", Ticker: "TEST_CS", EventDate: time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC), AnalystName: "J. Doe", AnalystCompany: "Big Bank", PriceTarget: 235, PriceWhenPosted: 226},
	}

	for _, ev := range seed {
		_, err := pool.Exec(ctx, `
			INSERT INTO consensus_events (id, ticker, event_date, analyst_name, analyst_company, price_target, price_when_posted)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`, ev.ID, ev.Ticker, ev.EventDate, ev.AnalystName, ev.AnalystCompany, ev.PriceTarget, ev.PriceWhenPosted)
		require.NoError(t, err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM consensus_events WHERE ticker = $1", "TEST_CS")
	})

	key := contracts.PartitionKey{Ticker: "TEST_CS", AnalystName: "J. Doe", AnalystCompany: "Big Bank"}

	events, err := s.ListPartition(ctx, key)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "it-e1", events[0].ID, "partition must come back newest first")

	keys, err := s.ListPartitionKeys(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	resolved := consensus.ResolvePartition(events)
	require.NoError(t, s.SaveResolved(ctx, resolved))

	got, err := s.GetByID(ctx, "it-e1")
	require.NoError(t, err)
	assert.Equal(t, 250.0, got.PriceTarget)
}
