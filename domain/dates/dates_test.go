package dates

import (
	"strings"
	"testing"
	"time"
)

func TestNormalizeReplacesEachPortugueseMonth(t *testing.T) {
	english := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	for i, pt := range Portuguese.Months() {
		in := "15/" + pt + "/24 10:30 AM"
		want := "15/" + english[i] + "/24 10:30 AM"
		if got := Portuguese.Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
		parsed := NewParser(Portuguese).Parse(in)
		if parsed == nil {
			t.Fatalf("Parse(%q) returned nil", in)
		}
		if parsed.Month() != time.Month(i+1) || parsed.Day() != 15 || parsed.Year() != 2024 {
			t.Fatalf("Parse(%q) = %v", in, parsed)
		}
	}
}

func TestNormalizeCanonicalIsNoop(t *testing.T) {
	for _, in := range []string{"15/Jan/24 10:30 AM", "01/Sep/23 9:05 PM", "", "garbage"} {
		if got := Portuguese.Normalize(in); got != in {
			t.Fatalf("Normalize(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestNormalizeAppliesAtMostOneMapping(t *testing.T) {
	in := "jan jan"
	if got := Portuguese.Normalize(in); strings.Count(got, "Jan") != 1 {
		t.Fatalf("expected a single replacement, got %q", got)
	}
}

func TestParseMissingOrInvalidIsNil(t *testing.T) {
	p := NewParser(Portuguese)
	for _, in := range []string{"", "   ", "32/jan/24 10:00 AM", "2024-01-01", "01/xyz/24 10:00 AM"} {
		if got := p.Parse(in); got != nil {
			t.Fatalf("Parse(%q) = %v, want nil", in, got)
		}
	}
}

func TestParseTwelveHourClock(t *testing.T) {
	got := NewParser(Portuguese).Parse("10/mar/24 08:15 PM")
	want := time.Date(2024, time.March, 10, 20, 15, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestLocaleFor(t *testing.T) {
	if l, err := LocaleFor("pt-BR"); err != nil || l.Tag != "pt" {
		t.Fatalf("pt-BR: %v %v", l, err)
	}
	if _, err := LocaleFor("fr"); err == nil {
		t.Fatalf("expected error for unsupported locale")
	}
}

func TestParseFlexible(t *testing.T) {
	p := NewParser(Portuguese)
	cases := map[string]time.Time{
		"2024-02-01":         time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		"01/02/2024":         time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		"02-01-24":           time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		"01/fev/24 10:00 AM": time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got := p.ParseFlexible(in)
		if got == nil || !got.Equal(want) {
			t.Fatalf("ParseFlexible(%q) = %v, want %v", in, got, want)
		}
	}
	if got := p.ParseFlexible("soon"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestDaysBetween(t *testing.T) {
	at := func(s string) *time.Time {
		v, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return &v
	}
	cases := []struct {
		name       string
		start, end *time.Time
		want       int
	}{
		{"one day", at("2024-01-01T10:00:00Z"), at("2024-01-02T10:00:00Z"), 1},
		{"just under two days", at("2024-01-01T10:00:00Z"), at("2024-01-03T09:59:59Z"), 1},
		{"same instant", at("2024-01-01T10:00:00Z"), at("2024-01-01T10:00:00Z"), 0},
		{"inverted one day", at("2024-03-10T08:00:00Z"), at("2024-03-09T08:00:00Z"), -1},
		{"inverted partial truncates toward zero", at("2024-03-10T08:00:00Z"), at("2024-03-09T20:00:00Z"), 0},
		{"missing end", at("2024-01-01T10:00:00Z"), nil, 0},
		{"missing start", nil, at("2024-01-01T10:00:00Z"), 0},
	}
	for _, c := range cases {
		if got := DaysBetween(c.start, c.end); got != c.want {
			t.Fatalf("%s: got %d want %d", c.name, got, c.want)
		}
	}
}

func TestMonthRange(t *testing.T) {
	from := time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	got := MonthRange(from, to)
	want := []string{"2023-11", "2023-12", "2024-01", "2024-02"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v want %v", got, want)
	}
}
