package charts

import (
	"fmt"
	"strings"

	lo "github.com/samber/lo"

	"jira-stats/domain/jira"
)

// Metric selects how latency charts aggregate days.
type Metric string

const (
	MetricMean  Metric = "mean"
	MetricTotal Metric = "total"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(s)) {
	case "", MetricMean:
		return MetricMean, nil
	case MetricTotal:
		return MetricTotal, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// Filter dimensions, as named in the dashboard config and the query string.
const (
	DimItemType = "item_type"
	DimPriority = "priority"
	DimAssignee = "assignee"
)

// Dimensions lists every filter dimension in display order.
var Dimensions = []string{DimItemType, DimPriority, DimAssignee}

// ValidateDimensions rejects names that are not filter dimensions.
func ValidateDimensions(dims []string) error {
	for _, d := range dims {
		if !lo.Contains(Dimensions, d) {
			return fmt.Errorf("unknown filter %q (want one of %s)", d, strings.Join(Dimensions, ", "))
		}
	}
	return nil
}

// Filter restricts the filtered charts. A nil list selects every value, an empty list selects none.
// Blank values are legitimate: they match issues with an empty cell.
type Filter struct {
	ItemTypes  []string `json:"item_types"`
	Priorities []string `json:"priorities"`
	Assignees  []string `json:"assignees"`
	Metric     Metric   `json:"metric"`
}

// Only resets the dimensions missing from enabled so they select every value.
func (f Filter) Only(enabled []string) Filter {
	if !lo.Contains(enabled, DimItemType) {
		f.ItemTypes = nil
	}
	if !lo.Contains(enabled, DimPriority) {
		f.Priorities = nil
	}
	if !lo.Contains(enabled, DimAssignee) {
		f.Assignees = nil
	}
	return f
}

func (f Filter) metric() Metric {
	if f.Metric == "" {
		return MetricMean
	}
	return f.Metric
}

func selected(values []string, v string) bool {
	return values == nil || lo.Contains(values, v)
}

// Apply returns the issues matching every dimension of the filter.
func (f Filter) Apply(issues []jira.Issue) []jira.Issue {
	return lo.Filter(issues, func(is jira.Issue, _ int) bool {
		return selected(f.ItemTypes, is.ItemType) &&
			selected(f.Priorities, is.Priority) &&
			selected(f.Assignees, is.Assignee)
	})
}

// FilterValues are the selectable values of each filter, in first-appearance order.
// Disabled filters are left out.
type FilterValues struct {
	ItemTypes  []string `json:"item_types,omitempty"`
	Priorities []string `json:"priorities,omitempty"`
	Assignees  []string `json:"assignees,omitempty"`
	Metrics    []Metric `json:"metrics"`
}

// Only drops the values of the dimensions missing from enabled.
func (v FilterValues) Only(enabled []string) FilterValues {
	if !lo.Contains(enabled, DimItemType) {
		v.ItemTypes = nil
	}
	if !lo.Contains(enabled, DimPriority) {
		v.Priorities = nil
	}
	if !lo.Contains(enabled, DimAssignee) {
		v.Assignees = nil
	}
	return v
}

func Distinct(issues []jira.Issue) FilterValues {
	pick := func(get func(jira.Issue) string) []string {
		return lo.Uniq(lo.Map(issues, func(is jira.Issue, _ int) string { return get(is) }))
	}
	return FilterValues{
		ItemTypes:  pick(func(is jira.Issue) string { return is.ItemType }),
		Priorities: pick(func(is jira.Issue) string { return is.Priority }),
		Assignees:  pick(func(is jira.Issue) string { return is.Assignee }),
		Metrics:    []Metric{MetricMean, MetricTotal},
	}
}

// DetailTable is the list of issues of one item type, restricted to the configured columns.
type DetailTable struct {
	ItemType string         `json:"item_type"`
	Columns  []string       `json:"columns"`
	Rows     [][]string     `json:"rows"`
	Warnings []jira.Warning `json:"warnings,omitempty"`
}

// Detail builds the detail table for itemType, or the first item type seen when it is empty.
// Requested columns absent from the data are left out and reported once.
func Detail(b jira.Bound, itemType string, columns []string) DetailTable {
	if itemType == "" {
		if types := Distinct(b.Issues).ItemTypes; len(types) > 0 {
			itemType = types[0]
		}
	}
	t := DetailTable{ItemType: itemType, Rows: [][]string{}}
	if b.Records == nil {
		t.Columns = []string{}
		return t
	}
	schema := b.Records.Schema()
	present := lo.Filter(columns, func(c string, _ int) bool { return schema.Has(c) })
	missing := lo.Without(columns, present...)
	t.Columns = present
	if len(missing) > 0 {
		t.Warnings = append(t.Warnings, jira.Warning{
			Code:    jira.WarnColumnsMissing,
			Field:   strings.Join(missing, ", "),
			Message: fmt.Sprintf("columns not present in the combined data: %s", strings.Join(missing, ", ")),
		})
	}
	for _, is := range b.Issues {
		if is.ItemType != itemType {
			continue
		}
		t.Rows = append(t.Rows, lo.Map(present, func(c string, _ int) string {
			v, _ := is.Record.Get(c)
			return v
		}))
	}
	return t
}
