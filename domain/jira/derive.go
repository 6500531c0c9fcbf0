package jira

import (
	"fmt"
	"strconv"
	"time"

	"jira-stats/domain/dates"
	"jira-stats/domain/table"
)

// Timestamps are the parsed lifecycle dates of one report row; nil means missing or unparseable.
type Timestamps struct {
	Created       *time.Time
	Resolved      *time.Time
	FirstResponse *time.Time
}

func ParseTimestamps(r table.Record, fs Fields, p dates.Parser) Timestamps {
	parse := func(col string) *time.Time {
		v, ok := r.Get(col)
		if !ok {
			return nil
		}
		return p.Parse(v)
	}
	return Timestamps{
		Created:       parse(fs.Created),
		Resolved:      parse(fs.Resolved),
		FirstResponse: parse(fs.FirstResponse),
	}
}

// Derive appends first_response_latency_days and resolution_latency_days to every record of rs.
// A missing timestamp column is reported and every duration depending on it is 0.
func Derive(rs *table.RecordSet, fs Fields, p dates.Parser) ([]Warning, error) {
	var warnings []Warning
	for _, f := range []Field{FieldCreated, FieldResolved, FieldFirstResponse} {
		if col := fs.Column(f); !rs.Schema().Has(col) {
			warnings = append(warnings, Warning{
				Code:    WarnMissingField,
				Field:   col,
				Message: fmt.Sprintf("timestamp column %q not found; dependent durations default to 0", col),
			})
		}
	}
	err := rs.AddField(FirstResponseDaysField, func(r table.Record) table.Value {
		ts := ParseTimestamps(r, fs, p)
		return table.String(strconv.Itoa(dates.DaysBetween(ts.Created, ts.FirstResponse)))
	})
	if err != nil {
		return warnings, err
	}
	err = rs.AddField(ResolutionDaysField, func(r table.Record) table.Value {
		ts := ParseTimestamps(r, fs, p)
		return table.String(strconv.Itoa(dates.DaysBetween(ts.Created, ts.Resolved)))
	})
	return warnings, err
}

// HasValidResolution reports whether both creation and resolution are present and the
// resolution is not earlier than the creation.
func HasValidResolution(r table.Record, fs Fields, p dates.Parser) bool {
	ts := ParseTimestamps(r, fs, p)
	return ts.Created != nil && ts.Resolved != nil && !ts.Resolved.Before(*ts.Created)
}
