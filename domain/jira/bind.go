package jira

import (
	"fmt"
	"strconv"
	"time"

	lo "github.com/samber/lo"

	"jira-stats/domain/dates"
	"jira-stats/domain/table"
)

// Bound holds the typed issues of a record set and which logical fields its schema carries.
type Bound struct {
	Issues  []Issue
	Present map[Field]bool
	Fields  Fields
	Records *table.RecordSet
}

// Has reports whether every given field is present.
func (b Bound) Has(fields ...Field) bool {
	return lo.EveryBy(fields, func(f Field) bool { return b.Present[f] })
}

// Missing lists the header names of the given fields that are absent.
func (b Bound) Missing(fields ...Field) []string {
	return lo.FilterMap(fields, func(f Field, _ int) (string, bool) {
		return b.Fields.Column(f), !b.Present[f]
	})
}

// Bind validates the field mapping against the schema once and converts every record into an
// Issue. Absent fields produce one warning each and read as zero values.
func Bind(rs *table.RecordSet, fs Fields, p dates.Parser) (Bound, []Warning) {
	schema := rs.Schema()
	b := Bound{Present: map[Field]bool{}, Fields: fs, Records: rs}
	var warnings []Warning
	for _, f := range AllFields {
		col := fs.Column(f)
		if col != "" && schema.Has(col) {
			b.Present[f] = true
			continue
		}
		warnings = append(warnings, Warning{
			Code:    WarnMissingField,
			Field:   col,
			Message: fmt.Sprintf("expected field %q (%s) is not present", col, f),
		})
	}

	hasDerived := schema.Has(FirstResponseDaysField) && schema.Has(ResolutionDaysField)
	b.Issues = make([]Issue, 0, rs.Len())
	for _, r := range rs.Records() {
		text := func(f Field) string {
			if !b.Present[f] {
				return ""
			}
			v, _ := r.Get(fs.Column(f))
			return v
		}
		ts := ParseTimestamps(r, fs, p)
		is := Issue{
			Key:           text(FieldKey),
			Summary:       text(FieldSummary),
			Description:   text(FieldDescription),
			ItemType:      text(FieldItemType),
			Status:        text(FieldStatus),
			Assignee:      text(FieldAssignee),
			Parent:        text(FieldParent),
			Priority:      text(FieldPriority),
			Version:       text(FieldVersion),
			Created:       ts.Created,
			Resolved:      ts.Resolved,
			FirstResponse: ts.FirstResponse,
			PreDate:       p.ParseFlexible(text(FieldPreDate)),
			ProdDate:      p.ParseFlexible(text(FieldProdDate)),
			Record:        r,
		}
		if hasDerived {
			is.FirstResponseDays = atoi(r, FirstResponseDaysField)
			is.ResolutionDays = atoi(r, ResolutionDaysField)
		} else {
			is.FirstResponseDays = dates.DaysBetween(ts.Created, ts.FirstResponse)
			is.ResolutionDays = dates.DaysBetween(ts.Created, ts.Resolved)
		}
		if ts.Created != nil {
			is.Month = dates.MonthKey(*ts.Created)
		}
		b.Issues = append(b.Issues, is)
	}
	return b, warnings
}

func atoi(r table.Record, field string) int {
	v, _ := r.Get(field)
	n, _ := strconv.Atoi(v)
	return n
}

// CreatedRange returns the earliest and latest creation dates, ok false when none is known.
func CreatedRange(issues []Issue) (from, to time.Time, ok bool) {
	withDate := lo.Filter(issues, func(is Issue, _ int) bool { return is.Created != nil })
	if len(withDate) == 0 {
		return from, to, false
	}
	from = *lo.MinBy(withDate, func(a, b Issue) bool { return a.Created.Before(*b.Created) }).Created
	to = *lo.MaxBy(withDate, func(a, b Issue) bool { return a.Created.After(*b.Created) }).Created
	return from, to, true
}
