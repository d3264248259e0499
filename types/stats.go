package types

// Statistics aggregates the record store by status, participant and month.
type Statistics struct {
	TotalRecords       int      `json:"total_records"`
	PendingCount       int      `json:"pending_count"`
	CompletedCount     int      `json:"completed_count"`
	UniqueSenders      int      `json:"unique_senders"`
	UniqueDestinations int      `json:"unique_destinations"`
	Senders            []string `json:"senders"`
	Destinations       []string `json:"destinations"`

	// Monthly holds at most twelve buckets, newest first.
	Monthly []MonthBucket `json:"monthly"`

	// RecentCount counts records dated within the last thirty days.
	RecentCount int `json:"recent_count"`

	TopSenders      []NameCount `json:"top_senders"`
	TopDestinations []NameCount `json:"top_destinations"`

	// CompletionRate is the completed share in percent, one decimal.
	CompletionRate float64 `json:"completion_rate"`
}

// MonthBucket counts records whose date falls in one calendar month.
type MonthBucket struct {
	Month     string `json:"month"` // Format: YYYY-MM
	Name      string `json:"name"`  // e.g. "January 2025"
	Count     int    `json:"count"`
	Pending   int    `json:"pending"`
	Completed int    `json:"completed"`
}

// NameCount pairs a sender or destination with its record count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
