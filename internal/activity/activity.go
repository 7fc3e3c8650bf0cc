// Package activity derives the per-day publishing series read by the
// activity heatmap.
package activity

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Movie-Song/sns-contents-tracker/internal/content"
	"github.com/Movie-Song/sns-contents-tracker/internal/store"
)

const dateLayout = "2006-01-02"

// Count groups records by publish date within [from, to] (YYYY-MM-DD,
// inclusive; empty means unbounded). Days without records are omitted and
// the result is in ascending date order.
func Count(records []content.StoredRecord, from, to string) []content.DayCount {
	counts := make(map[string]int)
	for _, r := range records {
		d := r.Date()
		if len(d) != len(dateLayout) {
			continue
		}
		if (from != "" && d < from) || (to != "" && d > to) {
			continue
		}
		counts[d]++
	}

	out := make([]content.DayCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, content.DayCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Series reads the last days calendar days, today included, from s.
func Series(ctx context.Context, s store.Store, days int, now time.Time) ([]content.DayCount, error) {
	if days < 1 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	today := now.UTC()
	from := today.AddDate(0, 0, -(days - 1)).Format(dateLayout)
	to := today.Format(dateLayout)

	records, err := s.Query(ctx, store.Query{
		Filter:       store.Filter{Since: from},
		SortDateDesc: true,
	})
	if err != nil {
		return nil, fmt.Errorf("reading activity: %w", err)
	}
	return Count(records, from, to), nil
}
