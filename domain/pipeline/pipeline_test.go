package pipeline

import (
	"errors"
	"reflect"
	"testing"

	"jira-stats/domain/jira"
	"jira-stats/domain/table"
)

type staticSource struct {
	rs      *table.RecordSet
	err     error
	dropped int
}

func (s staticSource) Load() (*table.RecordSet, error) { return s.rs, s.err }

func (s staticSource) DroppedRows() int { return s.dropped }

func newSet(t *testing.T, fields []string, rows ...[]string) *table.RecordSet {
	t.Helper()
	rs, err := table.New(fields)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, r := range rows {
		if err := rs.AppendStrings(r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return rs
}

// The three-row scenario: one normal, one unresolved, one resolved before creation.
func scenario(t *testing.T) *table.RecordSet {
	return newSet(t, []string{"Criado", "Resolvido", "Tipo de item"},
		[]string{"01/jan/24 10:00 AM", "02/jan/24 10:00 AM", "Bug"},
		[]string{"05/fev/24 09:00 AM", "", "Melhoria"},
		[]string{"10/mar/24 08:00 AM", "09/mar/24 08:00 AM", "Bug"},
	)
}

func resolutionDays(res *Result) []int {
	out := make([]int, 0, len(res.Issues()))
	for _, is := range res.Issues() {
		out = append(out, is.ResolutionDays)
	}
	return out
}

func TestRunKeepsInvalidRecordsByDefault(t *testing.T) {
	res, err := Run(Sources{Report: staticSource{rs: scenario(t)}}, DefaultOptions())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := resolutionDays(res); !reflect.DeepEqual(got, []int{1, 0, -1}) {
		t.Fatalf("resolution days = %v, want [1 0 -1]", got)
	}
	if res.Discarded != 0 {
		t.Fatalf("expected nothing discarded, got %d", res.Discarded)
	}
	if v, _ := res.Records.At(2).Get(jira.ResolutionDaysField); v != "-1" {
		t.Fatalf("derived column = %q, want -1", v)
	}
	if v, _ := res.Records.At(0).Get(jira.FirstResponseDaysField); v != "0" {
		t.Fatalf("first response without column = %q, want 0", v)
	}
}

func TestRunDiscardInvalidPolicy(t *testing.T) {
	opts := DefaultOptions()
	opts.Retention = DiscardInvalid
	res, err := Run(Sources{Report: staticSource{rs: scenario(t)}}, opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := resolutionDays(res); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("resolution days = %v, want [1]", got)
	}
	if res.Discarded != 2 {
		t.Fatalf("expected 2 discarded, got %d", res.Discarded)
	}
}

func TestRunJoinsBacklog(t *testing.T) {
	report := newSet(t, []string{"Chave", "Criado", "Tipo de item"},
		[]string{"ABC-1", "01/jan/24 10:00 AM", "Bug"},
		[]string{"ABC-2", "02/jan/24 10:00 AM", "Melhoria"},
	)
	backlog := newSet(t, []string{"#JIRA\nCard", "Data Pré"},
		[]string{"ABC-1", "2024-02-01"},
	)
	res, err := Run(Sources{Report: staticSource{rs: report}, Backlog: staticSource{rs: backlog}}, DefaultOptions())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Issues()) != 2 {
		t.Fatalf("expected both issues kept, got %d", len(res.Issues()))
	}
	if res.Issues()[0].PreDate == nil {
		t.Fatalf("expected ABC-1 to acquire Data Pré")
	}
	if res.Issues()[1].PreDate != nil {
		t.Fatalf("expected ABC-2 without Data Pré")
	}
	if v := res.Records.At(1).Value("Data Pré"); v.Valid {
		t.Fatalf("expected null Data Pré for ABC-2, got %+v", v)
	}
	if res.Join == nil || res.Join.Matched != 1 || res.Join.Unmatched != 1 {
		t.Fatalf("unexpected join stats %+v", res.Join)
	}
}

func TestRunJoinsOnConfiguredKey(t *testing.T) {
	report := newSet(t, []string{"Chave", "Card", "Criado"},
		[]string{"ABC-1", "X-9", "01/jan/24 10:00 AM"},
		[]string{"ABC-2", "X-7", "02/jan/24 10:00 AM"},
	)
	backlog := newSet(t, []string{"#JIRA\nCard", "Data Pré"},
		[]string{"ABC-1", "2024-02-01"},
		[]string{"X-7", "2024-03-01"},
	)
	opts := DefaultOptions()
	opts.JoinKey = "Card"
	res, err := Run(Sources{Report: staticSource{rs: report}, Backlog: staticSource{rs: backlog}}, opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Join == nil || res.Join.Matched != 1 {
		t.Fatalf("unexpected join stats %+v", res.Join)
	}
	if res.Issues()[0].PreDate != nil || res.Issues()[1].PreDate == nil {
		t.Fatalf("expected only ABC-2 matched through Card")
	}

	opts.JoinKey = "Missing"
	res, err = Run(Sources{Report: staticSource{rs: report}, Backlog: staticSource{rs: backlog}}, opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !hasWarning(res, jira.WarnJoinSkipped) {
		t.Fatalf("expected join_skipped warning, got %+v", res.Warnings)
	}
}

func hasWarning(res *Result, code string) bool {
	for _, w := range res.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestRunSkipsJoinWithoutBacklogKey(t *testing.T) {
	report := newSet(t, []string{"Chave"}, []string{"ABC-1"})
	backlog := newSet(t, []string{"Card"}, []string{"ABC-1"})
	res, err := Run(Sources{Report: staticSource{rs: report}, Backlog: staticSource{rs: backlog}}, DefaultOptions())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !hasWarning(res, jira.WarnJoinSkipped) {
		t.Fatalf("expected join_skipped warning, got %+v", res.Warnings)
	}
	if res.Records.Schema().Has("Card") {
		t.Fatalf("expected primary-only schema")
	}
}

func TestRunBacklogFailure(t *testing.T) {
	report := newSet(t, []string{"Chave"}, []string{"ABC-1"})
	broken := staticSource{err: errors.New("boom")}

	res, err := Run(Sources{Report: staticSource{rs: report}, Backlog: broken}, DefaultOptions())
	if err != nil {
		t.Fatalf("optional backlog must not fail the run: %v", err)
	}
	if !hasWarning(res, jira.WarnSecondaryUnavailable) {
		t.Fatalf("expected secondary_unavailable warning, got %+v", res.Warnings)
	}

	opts := DefaultOptions()
	opts.BacklogRequired = true
	report = newSet(t, []string{"Chave"}, []string{"ABC-1"})
	if _, err := Run(Sources{Report: staticSource{rs: report}, Backlog: broken}, opts); err == nil {
		t.Fatalf("expected error for required backlog")
	}
}

func TestRunReportFailureIsFatal(t *testing.T) {
	if _, err := Run(Sources{Report: staticSource{err: errors.New("no table")}}, DefaultOptions()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunReportsDroppedRows(t *testing.T) {
	res, err := Run(Sources{Report: staticSource{rs: scenario(t), dropped: 2}}, DefaultOptions())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.DroppedRows != 2 || !hasWarning(res, jira.WarnRowsDropped) {
		t.Fatalf("expected dropped rows reported, got %d %+v", res.DroppedRows, res.Warnings)
	}
}

func TestParseRetention(t *testing.T) {
	if p, err := ParseRetention(""); err != nil || p != RetainAll {
		t.Fatalf("default: %v %v", p, err)
	}
	if p, err := ParseRetention("discard_invalid"); err != nil || p != DiscardInvalid {
		t.Fatalf("discard: %v %v", p, err)
	}
	if _, err := ParseRetention("drop"); err == nil {
		t.Fatalf("expected error")
	}
}
