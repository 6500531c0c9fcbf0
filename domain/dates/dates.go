package dates

import (
	"fmt"
	"strings"
	"time"
)

// JiraLayout matches report timestamps such as "05/Feb/24 9:00 AM" once the month is canonical.
const JiraLayout = "2/Jan/06 3:04 PM"

// Locale maps the month abbreviations of one language onto the English forms Go's time package
// parses. Normalization is a plain substring replacement, which is only safe because the source
// abbreviations never overlap each other nor the digits, separators and AM/PM marker of the
// report layout.
type Locale struct {
	Tag    string
	months [][2]string
}

var Portuguese = Locale{Tag: "pt", months: [][2]string{
	{"jan", "Jan"}, {"fev", "Feb"}, {"mar", "Mar"}, {"abr", "Apr"},
	{"mai", "May"}, {"jun", "Jun"}, {"jul", "Jul"}, {"ago", "Aug"},
	{"set", "Sep"}, {"out", "Oct"}, {"nov", "Nov"}, {"dez", "Dec"},
}}

// English needs no mapping.
var English = Locale{Tag: "en"}

func LocaleFor(tag string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "pt", "pt-br", "pt_br":
		return Portuguese, nil
	case "en", "":
		return English, nil
	}
	return Locale{}, fmt.Errorf("unsupported locale %q", tag)
}

// Months returns the source abbreviations in calendar order.
func (l Locale) Months() []string {
	out := make([]string, len(l.months))
	for i, m := range l.months {
		out[i] = m[0]
	}
	return out
}

// Normalize replaces the first localized month token of s with its English form. At most one
// replacement is made; strings without a localized token come back unchanged.
func (l Locale) Normalize(s string) string {
	for _, m := range l.months {
		if i := strings.Index(s, m[0]); i >= 0 {
			return s[:i] + m[1] + s[i+len(m[0]):]
		}
	}
	return s
}

// Parser turns raw report strings into timestamps. Missing or unparseable input yields nil.
type Parser struct {
	Locale   Locale
	Layout   string
	Location *time.Location
}

func NewParser(l Locale) Parser { return Parser{Locale: l, Layout: JiraLayout, Location: time.UTC} }

func (p Parser) Parse(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	layout := p.Layout
	if layout == "" {
		layout = JiraLayout
	}
	t, err := time.ParseInLocation(layout, p.Locale.Normalize(s), p.location())
	if err != nil {
		return nil
	}
	return &t
}

func (p Parser) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

var flexibleLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"02/01/2006 15:04",
	"01-02-06",
	"2/1/06",
}

// ParseFlexible parses milestone dates typed by hand into the backlog spreadsheet. The report
// layout is tried first, then common date layouts (day-first for slashed dates).
func (p Parser) ParseFlexible(raw string) *time.Time {
	if t := p.Parse(raw); t != nil {
		return t
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range flexibleLayouts {
		if t, err := time.ParseInLocation(layout, s, p.location()); err == nil {
			return &t
		}
	}
	return nil
}

// DaysBetween returns whole days from start to end, truncated toward zero. Either end missing
// gives 0, which callers cannot tell apart from a zero elapsed time.
func DaysBetween(start, end *time.Time) int {
	if start == nil || end == nil {
		return 0
	}
	return int(end.Sub(*start).Seconds() / 86400)
}

// MonthStart returns midnight on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string { return t.Format("2006-01") }

// MonthRange lists every month key from the month of from to the month of to, inclusive.
func MonthRange(from, to time.Time) []string {
	var out []string
	for m := MonthStart(from); !m.After(MonthStart(to)); m = m.AddDate(0, 1, 0) {
		out = append(out, MonthKey(m))
	}
	return out
}
