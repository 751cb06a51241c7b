package contracts

import "time"

// ConsensusEvent is one analyst price-target publication.
type ConsensusEvent struct {
	ID              string    `json:"id"`
	Ticker          string    `json:"ticker"`
	EventDate       time.Time `json:"event_date"`
	AnalystName     string    `json:"analyst_name"`
	AnalystCompany  string    `json:"analyst_company"`
	PriceTarget     float64   `json:"price_target"`
	PriceWhenPosted float64   `json:"price_when_posted"`
}

// PartitionKey scopes "previous event" comparisons to one analyst identity
// on one ticker.
type PartitionKey struct {
	Ticker         string `json:"ticker"`
	AnalystName    string `json:"analyst_name"`
	AnalystCompany string `json:"analyst_company"`
}

// Partition returns the event's partition key.
func (e ConsensusEvent) Partition() PartitionKey {
	return PartitionKey{
		Ticker:         e.Ticker,
		AnalystName:    e.AnalystName,
		AnalystCompany: e.AnalystCompany,
	}
}

// Direction of a price-target revision relative to the analyst's previous one.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ResolvedConsensusEvent carries the comparison against the immediate
// successor in the partition's descending eventDate ordering. Pointer fields
// stay nil when there is no previous event.
type ResolvedConsensusEvent struct {
	ConsensusEvent
	PriceTargetPrev     *float64   `json:"price_target_prev,omitempty"`
	PriceWhenPostedPrev *float64   `json:"price_when_posted_prev,omitempty"`
	Direction           *Direction `json:"direction,omitempty"`
	Delta               *float64   `json:"delta,omitempty"`
	DeltaPct            *float64   `json:"delta_pct,omitempty"`
}
