// Package dates turns the many ways people type a date into the single
// canonical form stored on records.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/lgu-records/recordkeeper/types"
)

const (
	// DateLayout is the canonical form of a date without a clock.
	DateLayout = "2006-01-02"
	// DateTimeLayout is the canonical form of a date with a clock.
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Result is the outcome of Parse: either Parsed or Unparsed.
type Result interface {
	// Canonical returns the string to store on a record.
	Canonical() string
	isResult()
}

// Parsed is a recognized date.
type Parsed struct {
	Time time.Time
}

// Canonical drops the clock when it reads midnight.
func (p Parsed) Canonical() string {
	if p.Time.Hour() == 0 && p.Time.Minute() == 0 && p.Time.Second() == 0 {
		return p.Time.Format(DateLayout)
	}
	return p.Time.Format(DateTimeLayout)
}

func (Parsed) isResult() {}

// Unparsed keeps input that no pattern recognized.
type Unparsed struct {
	Original string
}

// Canonical returns types.NoDate for blank input and the original text
// otherwise.
func (u Unparsed) Canonical() string {
	if IsBlank(u.Original) {
		return types.NoDate
	}
	return u.Original
}

func (Unparsed) isResult() {}

type pattern struct {
	name  string
	re    *regexp.Regexp
	parse func(m []string) (time.Time, error)
}

// patterns are tried in order; month-first readings win over day-first.
var patterns = []pattern{
	{
		name: "month-first dotted or slashed",
		re:   regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})[./](\d{4})$`),
		parse: func(m []string) (time.Time, error) {
			return civil(m[3], m[1], m[2], "0", "0", "0")
		},
	},
	{
		name: "month-first dashed",
		re:   regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`),
		parse: func(m []string) (time.Time, error) {
			return civil(m[3], m[1], m[2], "0", "0", "0")
		},
	},
	{
		name: "day-first",
		re:   regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{4})$`),
		parse: func(m []string) (time.Time, error) {
			return civil(m[3], m[2], m[1], "0", "0", "0")
		},
	},
	{
		name: "iso date",
		re:   regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`),
		parse: func(m []string) (time.Time, error) {
			return civil(m[1], m[2], m[3], "0", "0", "0")
		},
	},
	{
		name: "iso date-time",
		re:   regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})\s+(\d{1,2}):(\d{1,2}):(\d{1,2})$`),
		parse: func(m []string) (time.Time, error) {
			return civil(m[1], m[2], m[3], m[4], m[5], m[6])
		},
	},
	{
		name: "month-first date-time",
		re:   regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})[./](\d{4})\s+(\d{1,2}):(\d{1,2}):(\d{1,2})$`),
		parse: func(m []string) (time.Time, error) {
			return civil(m[3], m[1], m[2], m[4], m[5], m[6])
		},
	},
	{
		name: "month name",
		re:   regexp.MustCompile(`^([A-Za-z]+)\.? (\d{1,2}), (\d{4})$`),
		parse: func(m []string) (time.Time, error) {
			month, err := monthByName(m[1])
			if err != nil {
				return time.Time{}, err
			}
			return civil(m[3], strconv.Itoa(month), m[2], "0", "0", "0")
		},
	},
	{
		name: "month name with clock",
		re:   regexp.MustCompile(`^([A-Za-z]+)\.? (\d{1,2}), (\d{4}) at (\d{1,2}):(\d{2}) ([AaPp][Mm])$`),
		parse: func(m []string) (time.Time, error) {
			month, err := monthByName(m[1])
			if err != nil {
				return time.Time{}, err
			}
			hour, err := strconv.Atoi(m[4])
			if err != nil || hour < 1 || hour > 12 {
				return time.Time{}, fmt.Errorf("invalid hour %q", m[4])
			}
			hour %= 12
			if strings.EqualFold(m[6], "pm") {
				hour += 12
			}
			return civil(m[3], strconv.Itoa(month), m[2], strconv.Itoa(hour), m[5], "0")
		},
	},
}

// Parse tries every known pattern in order, then a general-purpose parser.
func Parse(input string) Result {
	if IsBlank(input) {
		return Unparsed{Original: input}
	}
	s := strings.TrimSpace(input)

	if t, ok := matchPattern(s); ok {
		return Parsed{Time: t}
	}
	// dateparse fills a missing year with 0; "3/4" or "12:30" is not a date.
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil && t.Year() != 0 {
		return Parsed{Time: t}
	}
	return Unparsed{Original: input}
}

// Reformat rewrites input into canonical form only when one of the known
// patterns recognizes it. Stored dates are migrated with it so that text
// the general-purpose parser would guess at stays untouched.
func Reformat(input string) (string, bool) {
	if IsBlank(input) {
		return input, false
	}
	t, ok := matchPattern(strings.TrimSpace(input))
	if !ok {
		return input, false
	}
	return Parsed{Time: t}.Canonical(), true
}

func matchPattern(s string) (time.Time, bool) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		t, err := p.parse(m)
		if err != nil {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

// Normalize returns the canonical stored form of input.
func Normalize(input string) string {
	return Parse(input).Canonical()
}

// NormalizeOrNow behaves like Normalize but stamps the current time when
// input is blank. Interactive adds use it; imports do not.
func NormalizeOrNow(input string, now time.Time) string {
	if IsBlank(input) {
		return now.Format(DateTimeLayout)
	}
	return Normalize(input)
}

// IsCanonical reports whether s is already in one of the canonical layouts
// or is the no-date sentinel.
func IsCanonical(s string) bool {
	if s == types.NoDate {
		return true
	}
	if _, err := time.Parse(DateLayout, s); err == nil {
		return true
	}
	_, err := time.Parse(DateTimeLayout, s)
	return err == nil
}

// DatePart returns the YYYY-MM-DD portion of a canonical date, or false.
func DatePart(s string) (time.Time, bool) {
	if len(s) < len(DateLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s[:len(DateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsBlank reports whether input means "no date".
func IsBlank(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "nan", "nat", "none", "null", strings.ToLower(types.NoDate):
		return true
	}
	return false
}

func civil(year, month, day, hour, minute, second string) (time.Time, error) {
	vals := make([]int, 6)
	for i, raw := range []string{year, month, day, hour, minute, second} {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return time.Time{}, err
		}
		vals[i] = v
	}
	y, mo, d, h, mi, sec := vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]
	if mo < 1 || mo > 12 || d < 1 || d > 31 || h > 23 || mi > 59 || sec > 59 {
		return time.Time{}, fmt.Errorf("date out of range")
	}
	t := time.Date(y, time.Month(mo), d, h, mi, sec, 0, time.UTC)
	// time.Date normalizes 02-30 into March; reject that.
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, fmt.Errorf("no such day %d-%02d-%02d", y, mo, d)
	}
	return t, nil
}

func monthByName(name string) (int, error) {
	lower := strings.ToLower(name)
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		if lower == full || (len(lower) >= 3 && strings.HasPrefix(full, lower)) {
			return int(m), nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", name)
}
