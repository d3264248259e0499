package menu

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/lgu-records/recordkeeper/types"
)

func renderRecords(out io.Writer, records []types.Record) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "ID", "Date", "Sender", "Subject", "Destination", "Status"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, r := range records {
		table.Append([]string{
			strconv.Itoa(i + 1),
			r.ID,
			r.Date,
			r.Sender,
			r.Subject,
			r.Destination,
			r.Status,
		})
	}
	table.Render()
}

func renderStatistics(out io.Writer, stats types.Statistics) {
	fmt.Fprintf(out, "Total Records: %d\n", stats.TotalRecords)
	fmt.Fprintf(out, "Pending: %d  Completed: %d  Completion rate: %.1f%%\n",
		stats.PendingCount, stats.CompletedCount, stats.CompletionRate)
	fmt.Fprintf(out, "Unique Senders: %d\n", stats.UniqueSenders)
	fmt.Fprintf(out, "Unique Destinations: %d\n", stats.UniqueDestinations)
	fmt.Fprintf(out, "Dated within the last 30 days: %d\n", stats.RecentCount)

	if len(stats.Monthly) > 0 {
		fmt.Fprintln(out, "\nBy month:")
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Month", "Total", "Pending", "Completed"})
		for _, m := range stats.Monthly {
			table.Append([]string{m.Name, strconv.Itoa(m.Count), strconv.Itoa(m.Pending), strconv.Itoa(m.Completed)})
		}
		table.Render()
	}

	renderNames(out, "Senders", stats.Senders)
	renderNames(out, "Destinations", stats.Destinations)
}

func renderNames(out io.Writer, title string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, name := range names {
		fmt.Fprintf(out, "  - %s\n", name)
	}
}
