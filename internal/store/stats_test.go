package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lgu-records/recordkeeper/types"
)

func TestComputeStatistics_Empty(t *testing.T) {
	stats := ComputeStatistics(nil, time.Now())
	assert.Equal(t, 0, stats.TotalRecords)
	assert.Empty(t, stats.Senders)
	assert.NotNil(t, stats.Monthly)
	assert.Zero(t, stats.CompletionRate)
}

func TestComputeStatistics(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	records := []types.Record{
		{Sender: "Treasury", Destination: "Mayor", Date: "2025-03-10", Status: types.StatusCompleted},
		{Sender: "Treasury", Destination: "Council", Date: "2025-03-01 08:00:00", Status: types.StatusPending},
		{Sender: "Engineering", Destination: "Mayor", Date: "2025-01-20", Status: types.StatusPending},
		{Sender: "Engineering", Destination: "Mayor", Date: types.NoDate, Status: types.StatusPending},
	}

	stats := ComputeStatistics(records, now)
	assert.Equal(t, 4, stats.TotalRecords)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 3, stats.PendingCount)
	assert.Equal(t, 2, stats.UniqueSenders)
	assert.Equal(t, []string{"Engineering", "Treasury"}, stats.Senders)
	assert.Equal(t, []string{"Council", "Mayor"}, stats.Destinations)
	assert.Equal(t, 2, stats.RecentCount)
	assert.Equal(t, 25.0, stats.CompletionRate)

	if assert.Len(t, stats.Monthly, 2) {
		assert.Equal(t, "2025-03", stats.Monthly[0].Month)
		assert.Equal(t, "March 2025", stats.Monthly[0].Name)
		assert.Equal(t, 2, stats.Monthly[0].Count)
		assert.Equal(t, 1, stats.Monthly[0].Completed)
		assert.Equal(t, "2025-01", stats.Monthly[1].Month)
	}
	assert.Equal(t, types.NameCount{Name: "Mayor", Count: 3}, stats.TopDestinations[0])
	assert.Equal(t, types.NameCount{Name: "Engineering", Count: 2}, stats.TopSenders[0])
}
