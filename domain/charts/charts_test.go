package charts

import (
	"reflect"
	"testing"

	"jira-stats/domain/dates"
	"jira-stats/domain/jira"
	"jira-stats/domain/table"
)

var header = []string{"Chave", "Tipo de item", "Status", "Responsável", "Pai", "Prioridade", "Versão", "Criado", "Resolvido", "[CHART] Date of First Response", "Data Pré", "Data Produção", "Resumo"}

func bound(t *testing.T, fields []string, rows ...[]string) jira.Bound {
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
	p := dates.NewParser(dates.Portuguese)
	if _, err := jira.Derive(rs, jira.DefaultFields(), p); err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, _ := jira.Bind(rs, jira.DefaultFields(), p)
	return b
}

func sample(t *testing.T) jira.Bound {
	return bound(t, header,
		[]string{"ABC-1", "Bug", "Aberto", "ana", "Vendas", "Alta", "1.0", "01/jan/24 10:00 AM", "04/jan/24 10:00 AM", "02/jan/24 10:00 AM", "2024-01-20", "", "um"},
		[]string{"ABC-2", "Melhoria", "Fechado", "bia", "Vendas", "Baixa", "1.0", "10/jan/24 10:00 AM", "20/jan/24 10:00 AM", "13/jan/24 10:00 AM", "", "", "dois"},
		[]string{"ABC-3", "Bug", "Fechado", "ana", "Estoque", "Alta", "2.0", "05/mar/24 10:00 AM", "06/mar/24 10:00 AM", "05/mar/24 10:00 AM", "2024-04-01", "", "três"},
		[]string{"ABC-4", "Tarefa", "Aberto", "bia", "Estoque", "Alta", "", "07/mar/24 10:00 AM", "", "", "", "", "quatro"},
	)
}

func chartByID(t *testing.T, d Dashboard, id string) Chart {
	t.Helper()
	for _, c := range d.Charts {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("chart %s not built, warnings %+v", id, d.Warnings)
	return Chart{}
}

func TestBuildAllCharts(t *testing.T) {
	d := Build(sample(t), Filter{}, DefaultOptions())
	if len(d.Charts) != len(builders) {
		t.Fatalf("expected %d charts, got %d (%+v)", len(builders), len(d.Charts), d.Warnings)
	}
	if len(d.Warnings) != 0 {
		t.Fatalf("unexpected warnings %+v", d.Warnings)
	}
}

func TestModuleStatusIgnoresFilter(t *testing.T) {
	d := Build(sample(t), Filter{ItemTypes: []string{"Tarefa"}}, DefaultOptions())
	got := chartByID(t, d, "module_status").Points
	want := []Point{
		{X: "Estoque", Series: "Aberto", Value: 1},
		{X: "Estoque", Series: "Fechado", Value: 1},
		{X: "Vendas", Series: "Aberto", Value: 1},
		{X: "Vendas", Series: "Fechado", Value: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("module_status = %+v", got)
	}
}

func TestAssigneeTypeHonoursFilter(t *testing.T) {
	d := Build(sample(t), Filter{Assignees: []string{"ana"}}, DefaultOptions())
	got := chartByID(t, d, "assignee_type").Points
	want := []Point{{X: "ana", Series: "Bug", Value: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("assignee_type = %+v", got)
	}
}

func TestFilterBlankAndEmptySelections(t *testing.T) {
	b := bound(t, header,
		[]string{"ABC-1", "Bug", "Aberto", "ana", "Vendas", "Alta", "", "01/jan/24 10:00 AM", "", "", "", "", "um"},
		[]string{"ABC-2", "Bug", "Aberto", "bia", "Vendas", "Alta", "", "02/jan/24 10:00 AM", "", "", "", "", "dois"},
		[]string{"ABC-3", "Bug", "Aberto", "", "Vendas", "", "", "03/jan/24 10:00 AM", "", "", "", "", "três"},
	)
	if got := Distinct(b.Issues).Assignees; !reflect.DeepEqual(got, []string{"ana", "bia", ""}) {
		t.Fatalf("assignees = %q", got)
	}
	got := chartByID(t, Build(b, Filter{Assignees: []string{"ana", ""}}, DefaultOptions()), "assignee_type").Points
	want := []Point{{X: "", Series: "Bug", Value: 1}, {X: "ana", Series: "Bug", Value: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("assignee_type = %+v", got)
	}
	if got := (Filter{Assignees: []string{}}).Apply(b.Issues); len(got) != 0 {
		t.Fatalf("empty selection must match nothing, got %d", len(got))
	}
	if got := (Filter{}).Apply(b.Issues); len(got) != 3 {
		t.Fatalf("nil selection must match everything, got %d", len(got))
	}
}

func TestBuildIgnoresDisabledFilters(t *testing.T) {
	opts := DefaultOptions()
	opts.Filters = []string{DimItemType}
	d := Build(sample(t), Filter{Assignees: []string{"ana"}, Priorities: []string{}}, opts)
	if d.Filter.Assignees != nil || d.Filter.Priorities != nil {
		t.Fatalf("disabled dimensions echoed: %+v", d.Filter)
	}
	if got := chartByID(t, d, "assignee_type").Points; len(got) != 3 {
		t.Fatalf("assignee filter must be off, got %+v", got)
	}
	v := Distinct(sample(t).Issues).Only(opts.Filters)
	if v.Assignees != nil || v.Priorities != nil || len(v.ItemTypes) != 3 {
		t.Fatalf("values = %+v", v)
	}
	if err := ValidateDimensions([]string{"status"}); err == nil {
		t.Fatalf("expected unknown filter error")
	}
}

func TestCreatedTimelineFillsMonths(t *testing.T) {
	got := chartByID(t, Build(sample(t), Filter{}, DefaultOptions()), "created_timeline").Points
	if len(got) != 9 {
		t.Fatalf("expected 3 months x 3 types, got %d: %+v", len(got), got)
	}
	for _, p := range got {
		if p.X == "2024-02" && p.Value != 0 {
			t.Fatalf("expected zero fill for February, got %+v", p)
		}
	}
	if got[0] != (Point{X: "2024-01", Series: "Bug", Value: 1}) {
		t.Fatalf("first point = %+v", got[0])
	}
}

func TestResolutionMetric(t *testing.T) {
	b := sample(t)
	f := Filter{Priorities: []string{"Alta"}}
	mean := chartByID(t, Build(b, f, DefaultOptions()), "resolution_by_month").Points
	want := []Point{
		{X: "2024-01", Series: "Bug", Group: "Alta", Value: 3},
		{X: "2024-03", Series: "Bug", Group: "Alta", Value: 1},
		{X: "2024-03", Series: "Tarefa", Group: "Alta", Value: 0},
	}
	if !reflect.DeepEqual(mean, want) {
		t.Fatalf("mean = %+v", mean)
	}

	two := bound(t, header,
		[]string{"A-1", "Bug", "", "", "", "Alta", "", "01/jan/24 10:00 AM", "03/jan/24 10:00 AM", "", "", "", ""},
		[]string{"A-2", "Bug", "", "", "", "Alta", "", "02/jan/24 10:00 AM", "07/jan/24 10:00 AM", "", "", "", ""},
	)
	c := chartByID(t, Build(two, Filter{}, DefaultOptions()), "resolution_by_month")
	if len(c.Points) != 1 || c.Points[0].Value != 3.5 {
		t.Fatalf("mean of 2 and 5 = %+v", c.Points)
	}
	c = chartByID(t, Build(two, Filter{Metric: MetricTotal}, DefaultOptions()), "resolution_by_month")
	if len(c.Points) != 1 || c.Points[0].Value != 7 {
		t.Fatalf("total of 2 and 5 = %+v", c.Points)
	}
	if c.Title != "Tempo de Solução por Mês (Total em dias)" {
		t.Fatalf("title = %q", c.Title)
	}
}

func TestMilestoneCharts(t *testing.T) {
	d := Build(sample(t), Filter{}, DefaultOptions())
	missing := chartByID(t, d, "milestones_missing").Points
	if !reflect.DeepEqual(missing, []Point{{X: "2024-01", Series: "Melhoria", Value: 1}}) {
		t.Fatalf("missing = %+v", missing)
	}
	present := chartByID(t, d, "milestones_present").Points
	want := []Point{
		{X: "2024-01", Series: "Bug", Value: 1},
		{X: "2024-03", Series: "Bug", Value: 1},
	}
	if !reflect.DeepEqual(present, want) {
		t.Fatalf("present = %+v", present)
	}
}

func TestVersionTimeline(t *testing.T) {
	spans := chartByID(t, Build(sample(t), Filter{}, DefaultOptions()), "version_timeline").Spans
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %+v", spans)
	}
	if spans[0].Label != "1.0" || dates.MonthKey(spans[0].Start) != "2024-01" || spans[0].End.Day() != 20 {
		t.Fatalf("span 1.0 = %+v", spans[0])
	}
	if spans[1].Label != "2.0" || spans[1].End.Month() != 4 {
		t.Fatalf("span 2.0 = %+v", spans[1])
	}
}

func TestBuildSkipsChartsWithMissingFields(t *testing.T) {
	b := bound(t, []string{"Chave", "Tipo de item", "Responsável", "Criado"},
		[]string{"A-1", "Bug", "ana", "01/jan/24 10:00 AM"},
	)
	d := Build(b, Filter{}, DefaultOptions())
	ids := map[string]bool{}
	for _, c := range d.Charts {
		ids[c.ID] = true
	}
	if !ids["assignee_type"] || !ids["created_timeline"] || ids["module_status"] || ids["version_timeline"] {
		t.Fatalf("unexpected charts %v", ids)
	}
	skipped := 0
	for _, w := range d.Warnings {
		if w.Code == jira.WarnChartSkipped {
			skipped++
		}
	}
	if skipped != len(builders)-2 {
		t.Fatalf("expected %d skipped charts, got %+v", len(builders)-2, d.Warnings)
	}
}

func TestDistinctKeepsFirstAppearanceOrder(t *testing.T) {
	v := Distinct(sample(t).Issues)
	if !reflect.DeepEqual(v.ItemTypes, []string{"Bug", "Melhoria", "Tarefa"}) {
		t.Fatalf("item types = %v", v.ItemTypes)
	}
	if !reflect.DeepEqual(v.Priorities, []string{"Alta", "Baixa"}) {
		t.Fatalf("priorities = %v", v.Priorities)
	}
	if !reflect.DeepEqual(v.Assignees, []string{"ana", "bia"}) {
		t.Fatalf("assignees = %v", v.Assignees)
	}
}

func TestDetail(t *testing.T) {
	b := sample(t)
	d := Detail(b, "", []string{"Chave", "Status", "Análise x Documentação/Desenvolvimento/QA/Entrega", "Resumo"})
	if d.ItemType != "Bug" {
		t.Fatalf("default item type = %q", d.ItemType)
	}
	if !reflect.DeepEqual(d.Columns, []string{"Chave", "Status", "Resumo"}) {
		t.Fatalf("columns = %v", d.Columns)
	}
	want := [][]string{{"ABC-1", "Aberto", "um"}, {"ABC-3", "Fechado", "três"}}
	if !reflect.DeepEqual(d.Rows, want) {
		t.Fatalf("rows = %v", d.Rows)
	}
	if len(d.Warnings) != 1 || d.Warnings[0].Code != jira.WarnColumnsMissing {
		t.Fatalf("warnings = %+v", d.Warnings)
	}

	if rows := Detail(b, "Tarefa", []string{"Chave"}).Rows; !reflect.DeepEqual(rows, [][]string{{"ABC-4"}}) {
		t.Fatalf("tarefa rows = %v", rows)
	}
}

func TestParseMetric(t *testing.T) {
	for in, want := range map[string]Metric{"": MetricMean, "mean": MetricMean, "Total": MetricTotal} {
		got, err := ParseMetric(in)
		if err != nil || got != want {
			t.Fatalf("ParseMetric(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMetric("median"); err == nil {
		t.Fatalf("expected error")
	}
}
