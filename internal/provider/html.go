package provider

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// FetchQuarterlyHTML is the fallback path for tickers the JSON API does not
// cover: it scrapes the provider's quarterly fundamentals table.
func (c *Client) FetchQuarterlyHTML(ctx context.Context, ticker string, lookback int) ([]contracts.QuarterlyRecord, error) {
	endpoint := fmt.Sprintf("%s/fundamentals/%s/quarterly", c.baseURL, ticker)

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch fundamentals page for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	records, err := ParseFundamentalsTable(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse fundamentals page for %s: %w", ticker, err)
	}

	if len(records) > lookback {
		records = records[:lookback]
	}

	c.logger.WithFields(map[string]any{
		"ticker": ticker,
		"count":  len(records),
	}).Debug("Scraped quarterly fundamentals")

	return records, nil
}

var periodHeaderRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseFundamentalsTable parses an HTML fundamentals table where the first
// header row carries quarter end dates and each body row carries one field
// (row header) with per-quarter values.
func ParseFundamentalsTable(r io.Reader) ([]contracts.QuarterlyRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	table := doc.Find("table.fundamentals").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("fundamentals table not found")
	}

	// Header: quarter end dates, newest first.
	var periods []time.Time
	table.Find("thead th").Each(func(i int, cell *goquery.Selection) {
		text := strings.TrimSpace(cell.Text())
		if !periodHeaderRe.MatchString(text) {
			return
		}
		if d, err := time.Parse("2006-01-02", text); err == nil {
			periods = append(periods, d)
		}
	})
	if len(periods) == 0 {
		return nil, fmt.Errorf("no period columns found")
	}

	byPeriod := make(map[time.Time]map[string]float64, len(periods))
	for _, p := range periods {
		byPeriod[p] = make(map[string]float64)
	}

	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		field, ok := row.Find("th").First().Attr("data-field")
		if !ok {
			field = normalizeFieldName(row.Find("th").First().Text())
		}
		if field == "" {
			return
		}

		row.Find("td").Each(func(j int, cell *goquery.Selection) {
			if j >= len(periods) {
				return
			}
			v, ok := parseCell(cell.Text())
			if !ok {
				return
			}
			byPeriod[periods[j]][field] = v
		})
	})

	records := make([]contracts.QuarterlyRecord, 0, len(periods))
	for _, p := range periods {
		if len(byPeriod[p]) == 0 {
			continue
		}
		records = append(records, contracts.QuarterlyRecord{PeriodEnd: p, Fields: byPeriod[p]})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].PeriodEnd.After(records[j].PeriodEnd)
	})

	return records, nil
}

func normalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

func parseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" || s == "N/A" {
		return 0, false
	}

	// Parenthesized values are negatives in financial tables.
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}
