// Package charts aggregates typed issues into the series shown on the dashboard.
package charts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	lo "github.com/samber/lo"

	"jira-stats/domain/dates"
	"jira-stats/domain/jira"
)

type Kind string

const (
	KindBar      Kind = "bar"
	KindLine     Kind = "line"
	KindTimeline Kind = "timeline"
)

// Point is one value of a series. Group carries a third grouping key when the chart has one.
type Point struct {
	X      string  `json:"x"`
	Series string  `json:"series"`
	Group  string  `json:"group,omitempty"`
	Value  float64 `json:"value"`
}

// Span is one bar of a timeline chart.
type Span struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Chart struct {
	ID          string  `json:"id"`
	Kind        Kind    `json:"kind"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	XLabel      string  `json:"x_label"`
	YLabel      string  `json:"y_label"`
	SeriesLabel string  `json:"series_label,omitempty"`
	Grouped     bool    `json:"grouped,omitempty"`
	Points      []Point `json:"points,omitempty"`
	Spans       []Span  `json:"spans,omitempty"`
}

// Options are the per-deployment dashboard settings.
type Options struct {
	// MilestoneTypes are the item types counted by the milestone charts.
	MilestoneTypes []string
	// Filters are the enabled filter dimensions. Nil enables all of them.
	Filters []string
}

func DefaultOptions() Options {
	return Options{
		MilestoneTypes: []string{"Bug", "Melhoria"},
		Filters:        append([]string{}, Dimensions...),
	}
}

// Dashboard is the full chart payload for one filter selection.
type Dashboard struct {
	Filter   Filter         `json:"filter"`
	Charts   []Chart        `json:"charts"`
	Warnings []jira.Warning `json:"warnings,omitempty"`
}

type builder struct {
	id       string
	requires []jira.Field
	build    func(all, filtered []jira.Issue, f Filter, opts Options) Chart
}

var builders = []builder{
	{"module_status", []jira.Field{jira.FieldParent, jira.FieldStatus}, moduleStatus},
	{"assignee_type", []jira.Field{jira.FieldAssignee, jira.FieldItemType}, assigneeType},
	{"created_timeline", []jira.Field{jira.FieldCreated, jira.FieldItemType}, createdTimeline},
	{"first_response_by_month", []jira.Field{jira.FieldCreated, jira.FieldFirstResponse, jira.FieldItemType, jira.FieldPriority}, firstResponseByMonth},
	{"resolution_by_month", []jira.Field{jira.FieldCreated, jira.FieldResolved, jira.FieldItemType, jira.FieldPriority}, resolutionByMonth},
	{"milestones_missing", []jira.Field{jira.FieldCreated, jira.FieldItemType, jira.FieldPreDate, jira.FieldProdDate}, milestonesMissing},
	{"milestones_present", []jira.Field{jira.FieldCreated, jira.FieldItemType, jira.FieldPreDate, jira.FieldProdDate}, milestonesPresent},
	{"version_timeline", []jira.Field{jira.FieldVersion, jira.FieldCreated, jira.FieldPreDate}, versionTimeline},
}

// Build computes every chart whose fields are present; the others are skipped with a warning.
// Disabled filter dimensions are ignored.
func Build(b jira.Bound, f Filter, opts Options) Dashboard {
	if opts.Filters != nil {
		f = f.Only(opts.Filters)
	}
	d := Dashboard{Filter: f, Charts: []Chart{}}
	filtered := f.Apply(b.Issues)
	for _, bl := range builders {
		if !b.Has(bl.requires...) {
			d.Warnings = append(d.Warnings, jira.Warning{
				Code:    jira.WarnChartSkipped,
				Field:   strings.Join(b.Missing(bl.requires...), ", "),
				Message: fmt.Sprintf("chart %s skipped: missing %s", bl.id, strings.Join(b.Missing(bl.requires...), ", ")),
			})
			continue
		}
		c := bl.build(b.Issues, filtered, f, opts)
		c.ID = bl.id
		d.Charts = append(d.Charts, c)
	}
	return d
}

type countKey struct{ x, series, group string }

// countBy counts issues per key and returns points sorted by x, series, group.
func countBy(issues []jira.Issue, key func(jira.Issue) (countKey, bool)) []Point {
	counts := map[countKey]int{}
	for _, is := range issues {
		if k, ok := key(is); ok {
			counts[k]++
		}
	}
	points := lo.MapToSlice(counts, func(k countKey, n int) Point {
		return Point{X: k.x, Series: k.series, Group: k.group, Value: float64(n)}
	})
	sortPoints(points)
	return points
}

func sortPoints(points []Point) {
	sort.Slice(points, func(i, j int) bool {
		a, b := points[i], points[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Series != b.Series {
			return a.Series < b.Series
		}
		return a.Group < b.Group
	})
}

func moduleStatus(all, _ []jira.Issue, _ Filter, _ Options) Chart {
	return Chart{
		Kind:        KindBar,
		Title:       "Quantidade de itens por Tipo de Item e Status para cada Módulo",
		Description: "Quantidade de itens por módulo (Pai) e status.",
		XLabel:      "Módulo",
		YLabel:      "Quantidade de Itens",
		SeriesLabel: "Status",
		Points: countBy(all, func(is jira.Issue) (countKey, bool) {
			return countKey{x: is.Parent, series: is.Status}, true
		}),
	}
}

func assigneeType(_, filtered []jira.Issue, _ Filter, _ Options) Chart {
	return Chart{
		Kind:        KindBar,
		Title:       "Distribuição de Responsável por Tipo de Item",
		Description: "Quantidade de itens atribuídos a cada responsável, por tipo de item.",
		XLabel:      "Responsável",
		YLabel:      "Quantidade de Itens",
		SeriesLabel: "Tipo de Item",
		Points: countBy(filtered, func(is jira.Issue) (countKey, bool) {
			return countKey{x: is.Assignee, series: is.ItemType}, true
		}),
	}
}

// createdTimeline counts created issues per month and type, filling every month between the
// first and last creation with zeros.
func createdTimeline(all, _ []jira.Issue, _ Filter, _ Options) Chart {
	c := Chart{
		Kind:        KindLine,
		Title:       "Linha do Tempo de Itens Criados por Tipo de Item",
		Description: "Quantidade de itens criados ao longo do tempo, por tipo de item.",
		XLabel:      "Data",
		YLabel:      "Quantidade de Itens Criados",
		SeriesLabel: "Tipo de Item",
	}
	from, to, ok := jira.CreatedRange(all)
	if !ok {
		return c
	}
	dated := lo.Filter(all, func(is jira.Issue, _ int) bool { return is.Created != nil })
	types := lo.Uniq(lo.Map(dated, func(is jira.Issue, _ int) string { return is.ItemType }))
	sort.Strings(types)
	counts := map[countKey]int{}
	for _, is := range dated {
		counts[countKey{x: is.Month, series: is.ItemType}]++
	}
	for _, month := range dates.MonthRange(from, to) {
		for _, typ := range types {
			c.Points = append(c.Points, Point{X: month, Series: typ, Value: float64(counts[countKey{x: month, series: typ}])})
		}
	}
	return c
}

func metricByMonth(filtered []jira.Issue, m Metric, value func(jira.Issue) int) []Point {
	groups := lo.GroupBy(lo.Filter(filtered, func(is jira.Issue, _ int) bool { return is.Month != "" }),
		func(is jira.Issue) countKey { return countKey{x: is.Month, series: is.ItemType, group: is.Priority} })
	points := lo.MapToSlice(groups, func(k countKey, issues []jira.Issue) Point {
		total := lo.SumBy(issues, value)
		v := float64(total)
		if m != MetricTotal {
			v = v / float64(len(issues))
		}
		return Point{X: k.x, Series: k.series, Group: k.group, Value: v}
	})
	sortPoints(points)
	return points
}

func metricTitle(base string, m Metric) string {
	if m == MetricTotal {
		return base + " (Total em dias)"
	}
	return base + " (Média em dias)"
}

func firstResponseByMonth(_, filtered []jira.Issue, f Filter, _ Options) Chart {
	return Chart{
		Kind:        KindLine,
		Title:       metricTitle("Tempo da Primeira Resposta por Mês", f.metric()),
		Description: "Tempo da primeira resposta ao longo dos meses, por tipo de item e prioridade.",
		XLabel:      "Mês",
		YLabel:      "Tempo da Primeira Resposta",
		SeriesLabel: "Tipo de Item",
		Points:      metricByMonth(filtered, f.metric(), func(is jira.Issue) int { return is.FirstResponseDays }),
	}
}

func resolutionByMonth(_, filtered []jira.Issue, f Filter, _ Options) Chart {
	return Chart{
		Kind:        KindLine,
		Title:       metricTitle("Tempo de Solução por Mês", f.metric()),
		Description: "Tempo de solução ao longo dos meses, por tipo de item e prioridade.",
		XLabel:      "Mês",
		YLabel:      "Tempo de Solução",
		SeriesLabel: "Tipo de Item",
		Points:      metricByMonth(filtered, f.metric(), func(is jira.Issue) int { return is.ResolutionDays }),
	}
}

func milestoneCounts(filtered []jira.Issue, opts Options, keep func(jira.Issue) bool) []Point {
	return countBy(filtered, func(is jira.Issue) (countKey, bool) {
		if is.Month == "" || !lo.Contains(opts.MilestoneTypes, is.ItemType) || !keep(is) {
			return countKey{}, false
		}
		return countKey{x: is.Month, series: is.ItemType}, true
	})
}

func milestonesMissing(_, filtered []jira.Issue, _ Filter, opts Options) Chart {
	return Chart{
		Kind:        KindBar,
		Grouped:     true,
		Title:       "Quantidade de Bugs e Melhorias sem Data Pré ou Data Produção por Mês",
		Description: "Itens sem data de pré-produção nem de produção, por mês de criação.",
		XLabel:      "Mês",
		YLabel:      "Quantidade",
		SeriesLabel: "Tipo de Item",
		Points: milestoneCounts(filtered, opts, func(is jira.Issue) bool {
			return is.PreDate == nil && is.ProdDate == nil
		}),
	}
}

func milestonesPresent(_, filtered []jira.Issue, _ Filter, opts Options) Chart {
	return Chart{
		Kind:        KindBar,
		Grouped:     true,
		Title:       "Quantidade de Bugs e Melhorias com Data Pré ou Data Produção por Mês",
		Description: "Itens com data de pré-produção ou de produção, por mês de criação.",
		XLabel:      "Mês",
		YLabel:      "Quantidade",
		SeriesLabel: "Tipo de Item",
		Points: milestoneCounts(filtered, opts, func(is jira.Issue) bool {
			return is.PreDate != nil || is.ProdDate != nil
		}),
	}
}

// versionTimeline spans each version from its earliest creation to its latest pre-production date.
func versionTimeline(all, _ []jira.Issue, _ Filter, _ Options) Chart {
	c := Chart{
		Kind:   KindTimeline,
		Title:  "Linha do Tempo das Versões",
		XLabel: "Data",
		YLabel: "Versão",
	}
	complete := lo.Filter(all, func(is jira.Issue, _ int) bool {
		return is.Version != "" && is.Created != nil && is.PreDate != nil
	})
	byVersion := lo.GroupBy(complete, func(is jira.Issue) string { return is.Version })
	for _, v := range lo.Keys(byVersion) {
		issues := byVersion[v]
		start := lo.MinBy(issues, func(a, b jira.Issue) bool { return a.Created.Before(*b.Created) })
		end := lo.MaxBy(issues, func(a, b jira.Issue) bool { return a.PreDate.After(*b.PreDate) })
		c.Spans = append(c.Spans, Span{Label: v, Start: *start.Created, End: *end.PreDate})
	}
	sort.Slice(c.Spans, func(i, j int) bool { return c.Spans[i].Label < c.Spans[j].Label })
	return c
}
