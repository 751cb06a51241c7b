package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/5ys-5y5/alsign-sub001/internal/catalog"
	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// BuildEventContext materializes the per-event input bundle: one quarterly
// fetch per ticker, fanned out to every api_field metric in the catalog. The
// engine consumes the result without ever touching the network.
func BuildEventContext(ctx context.Context, source contracts.RecordSource, cat *catalog.Catalog, ticker string, eventDate time.Time, lookback int) (*contracts.EventContext, error) {
	records, err := source.FetchQuarterly(ctx, ticker, lookback)
	if err != nil {
		return nil, fmt.Errorf("build event context for %s: %w", ticker, err)
	}

	raw := make(map[string]contracts.RawField)
	for _, def := range cat.Definitions() {
		if def.SourceKind != contracts.SourceAPIField {
			continue
		}
		raw[def.ID] = contracts.RawField{Records: records}
	}

	return &contracts.EventContext{
		Ticker:    ticker,
		EventDate: eventDate,
		Raw:       raw,
	}, nil
}
