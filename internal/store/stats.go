package store

import (
	"math"
	"sort"
	"time"

	"github.com/lgu-records/recordkeeper/internal/dates"
	"github.com/lgu-records/recordkeeper/types"
)

const (
	maxMonthBuckets = 12
	maxTopEntries   = 10
	recentWindow    = 30 * 24 * time.Hour
)

// ComputeStatistics aggregates records as of now.
func ComputeStatistics(records []types.Record, now time.Time) types.Statistics {
	stats := types.Statistics{
		TotalRecords:    len(records),
		Senders:         []string{},
		Destinations:    []string{},
		Monthly:         []types.MonthBucket{},
		TopSenders:      []types.NameCount{},
		TopDestinations: []types.NameCount{},
	}
	if len(records) == 0 {
		return stats
	}

	senders := map[string]int{}
	destinations := map[string]int{}
	months := map[string]*types.MonthBucket{}
	cutoff := now.Add(-recentWindow)

	for _, r := range records {
		switch r.Status {
		case types.StatusCompleted:
			stats.CompletedCount++
		default:
			stats.PendingCount++
		}
		if r.Sender != "" {
			senders[r.Sender]++
		}
		if r.Destination != "" {
			destinations[r.Destination]++
		}

		d, ok := dates.DatePart(r.Date)
		if !ok {
			continue
		}
		if !d.Before(cutoff) {
			stats.RecentCount++
		}
		key := d.Format("2006-01")
		b, ok := months[key]
		if !ok {
			b = &types.MonthBucket{Month: key, Name: d.Format("January 2006")}
			months[key] = b
		}
		b.Count++
		if r.Status == types.StatusCompleted {
			b.Completed++
		} else {
			b.Pending++
		}
	}

	stats.UniqueSenders = len(senders)
	stats.UniqueDestinations = len(destinations)
	stats.Senders = sortedKeys(senders)
	stats.Destinations = sortedKeys(destinations)
	stats.TopSenders = topCounts(senders)
	stats.TopDestinations = topCounts(destinations)

	for _, b := range months {
		stats.Monthly = append(stats.Monthly, *b)
	}
	sort.Slice(stats.Monthly, func(i, j int) bool {
		return stats.Monthly[i].Month > stats.Monthly[j].Month
	})
	if len(stats.Monthly) > maxMonthBuckets {
		stats.Monthly = stats.Monthly[:maxMonthBuckets]
	}

	rate := float64(stats.CompletedCount) / float64(stats.TotalRecords) * 100
	stats.CompletionRate = math.Round(rate*10) / 10
	return stats
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func topCounts(m map[string]int) []types.NameCount {
	out := make([]types.NameCount, 0, len(m))
	for name, count := range m {
		out = append(out, types.NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > maxTopEntries {
		out = out[:maxTopEntries]
	}
	return out
}
