package dates

import (
	"testing"
	"time"

	"github.com/lgu-records/recordkeeper/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"month-first dotted", "08.01.2025", "2025-08-01"},
		{"month-first slashed", "1/7/2025", "2025-01-07"},
		{"month-first dashed", "01-07-2025", "2025-01-07"},
		{"day-first when month is impossible", "25.12.2025", "2025-12-25"},
		{"day-first dashed", "31-01-2025", "2025-01-31"},
		{"iso date", "2025-01-07", "2025-01-07"},
		{"iso date single digits", "2025-1-7", "2025-01-07"},
		{"iso date-time", "2025-01-07 14:30:00", "2025-01-07 14:30:00"},
		{"iso midnight drops clock", "2025-01-07 00:00:00", "2025-01-07"},
		{"month-first date-time", "01/07/2025 09:05:00", "2025-01-07 09:05:00"},
		{"month name", "January 7, 2025", "2025-01-07"},
		{"short month name", "Jan 7, 2025", "2025-01-07"},
		{"month name with clock", "January 7, 2025 at 2:30 PM", "2025-01-07 14:30:00"},
		{"noon", "March 3, 2024 at 12:15 PM", "2024-03-03 12:15:00"},
		{"midnight hour", "March 3, 2024 at 12:15 AM", "2024-03-03 00:15:00"},
		{"fallback rfc3339", "2025-01-07T14:30:00Z", "2025-01-07 14:30:00"},
		{"surrounding whitespace", "  2025-01-07 ", "2025-01-07"},
		{"empty", "", types.NoDate},
		{"blank", "   ", types.NoDate},
		{"nan", "NaN", types.NoDate},
		{"sentinel", "No Date", types.NoDate},
		{"garbage kept", "see attached memo", "see attached memo"},
		{"impossible day kept", "2025-02-30", "2025-02-30"},
		{"clock only kept", "12:30", "12:30"},
		{"month and day only kept", "3/4", "3/4"},
		{"decimal kept", "1.5", "1.5"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"08.01.2025",
		"25.12.2025",
		"2025-01-07 14:30:00",
		"January 7, 2025 at 2:30 PM",
		"",
		"2025-01-07T14:30:00Z",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestParse_Variants(t *testing.T) {
	res := Parse("08.01.2025")
	parsed, ok := res.(Parsed)
	require.True(t, ok, "expected Parsed, got %T", res)
	assert.Equal(t, time.August, parsed.Time.Month())
	assert.Equal(t, 1, parsed.Time.Day())

	res = Parse("not a date")
	unparsed, ok := res.(Unparsed)
	require.True(t, ok, "expected Unparsed, got %T", res)
	assert.Equal(t, "not a date", unparsed.Original)
}

func TestParse_YearlessIsUnparsed(t *testing.T) {
	for _, in := range []string{"12:30", "3/4", "1.5"} {
		res := Parse(in)
		_, ok := res.(Unparsed)
		assert.True(t, ok, "input %q parsed as %T", in, res)
	}
}

func TestReformat(t *testing.T) {
	got, ok := Reformat("January 7, 2025")
	require.True(t, ok)
	assert.Equal(t, "2025-01-07", got)

	got, ok = Reformat("08.01.2025")
	require.True(t, ok)
	assert.Equal(t, "2025-08-01", got)

	// Only the known patterns are applied; the fallback parser is not.
	for _, in := range []string{"12:30", "3/4", "2025-01-07T14:30:00Z", "see memo", ""} {
		got, ok := Reformat(in)
		assert.False(t, ok, "input %q", in)
		assert.Equal(t, in, got)
	}
}

func TestNormalizeOrNow(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 11, 12, 0, time.UTC)
	assert.Equal(t, "2025-03-04 10:11:12", NormalizeOrNow("", now))
	assert.Equal(t, "2025-08-01", NormalizeOrNow("08.01.2025", now))
}

func TestIsCanonical(t *testing.T) {
	assert.True(t, IsCanonical("2025-01-07"))
	assert.True(t, IsCanonical("2025-01-07 14:30:00"))
	assert.True(t, IsCanonical(types.NoDate))
	assert.False(t, IsCanonical("01/07/2025"))
	assert.False(t, IsCanonical("January 7, 2025"))
}

func TestDatePart(t *testing.T) {
	d, ok := DatePart("2025-01-07 14:30:00")
	require.True(t, ok)
	assert.Equal(t, 7, d.Day())

	_, ok = DatePart(types.NoDate)
	assert.False(t, ok)
}
