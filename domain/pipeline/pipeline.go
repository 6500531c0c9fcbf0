// Package pipeline turns the extracted report table into joined, derived, typed issues.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lo "github.com/samber/lo"

	"jira-stats/domain/dates"
	"jira-stats/domain/jira"
	"jira-stats/domain/table"
)

// RetentionPolicy decides what happens to records whose creation/resolution pair is unusable.
type RetentionPolicy string

const (
	// RetainAll keeps every record; missing timestamps give zero durations and an inverted pair
	// gives a negative one.
	RetainAll RetentionPolicy = "keep"
	// DiscardInvalid keeps only records with both timestamps and resolution not before creation.
	DiscardInvalid RetentionPolicy = "discard_invalid"
)

func ParseRetention(s string) (RetentionPolicy, error) {
	switch RetentionPolicy(s) {
	case "", RetainAll:
		return RetainAll, nil
	case DiscardInvalid:
		return DiscardInvalid, nil
	}
	return "", fmt.Errorf("unknown retention policy %q", s)
}

// Source produces a record set. Sources that drop malformed rows may also implement
// interface{ DroppedRows() int }.
type Source interface {
	Load() (*table.RecordSet, error)
}

// Sources are the inputs of one run. Backlog is optional.
type Sources struct {
	Report  Source
	Backlog Source
}

type Options struct {
	Parser    dates.Parser
	Retention RetentionPolicy
	Fields    jira.Fields
	// JoinKey is the report column matched against BacklogKey. Empty means Fields.Key.
	JoinKey string
	// BacklogKey is the backlog column matched against JoinKey.
	BacklogKey string
	JoinSuffix string
	// BacklogRequired turns an unreadable backlog into a fatal error.
	BacklogRequired bool
}

func DefaultOptions() Options {
	return Options{
		Parser:     dates.NewParser(dates.Portuguese),
		Retention:  RetainAll,
		Fields:     jira.DefaultFields(),
		BacklogKey: "#JIRA\nCard",
		JoinSuffix: table.DefaultJoinSuffix,
	}
}

// Result is the immutable output of a run.
type Result struct {
	RunID       string
	LoadedAt    time.Time
	Records     *table.RecordSet
	Bound       jira.Bound
	Warnings    []jira.Warning
	DroppedRows int
	Discarded   int
	Join        *table.JoinStats
}

func (r *Result) Issues() []jira.Issue { return r.Bound.Issues }

// Run executes extract, derive, retention, join and bind in order. Only a failing report source
// or a required backlog is fatal; everything else is reported as a warning.
func Run(src Sources, opts Options) (*Result, error) {
	if src.Report == nil {
		return nil, errors.New("report source is required")
	}
	res := &Result{RunID: uuid.NewString(), LoadedAt: time.Now()}
	log := slog.With("run", res.RunID)
	log.Info("pipeline.start", "retention", opts.Retention, "locale", opts.Parser.Locale.Tag)

	rs, err := src.Report.Load()
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	if d, ok := src.Report.(interface{ DroppedRows() int }); ok && d.DroppedRows() > 0 {
		res.DroppedRows = d.DroppedRows()
		res.Warnings = append(res.Warnings, jira.Warning{
			Code:    jira.WarnRowsDropped,
			Message: fmt.Sprintf("%d malformed row(s) dropped from the report", res.DroppedRows),
		})
	}
	log.Info("pipeline.extract.done", "records", rs.Len(), "dropped", res.DroppedRows)

	ws, err := jira.Derive(rs, opts.Fields, opts.Parser)
	if err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}
	res.Warnings = append(res.Warnings, ws...)

	if opts.Retention == DiscardInvalid {
		before := rs.Len()
		rs = rs.Filter(func(r table.Record) bool { return jira.HasValidResolution(r, opts.Fields, opts.Parser) })
		res.Discarded = before - rs.Len()
		log.Info("pipeline.retention.done", "discarded", res.Discarded)
	}

	if src.Backlog != nil {
		joined, err := joinBacklog(rs, src.Backlog, opts, res)
		if err != nil {
			return nil, err
		}
		rs = joined
	}

	bound, ws := jira.Bind(rs, opts.Fields, opts.Parser)
	res.Warnings = append(res.Warnings, ws...)
	res.Warnings = lo.UniqBy(res.Warnings, func(w jira.Warning) string { return w.Code + "\x00" + w.Field })
	res.Records = rs
	res.Bound = bound
	for _, w := range res.Warnings {
		log.Warn("pipeline.warning", "code", w.Code, "field", w.Field, "message", w.Message)
	}
	log.Info("pipeline.done", "issues", len(bound.Issues), "warnings", len(res.Warnings))
	return res, nil
}

func joinBacklog(rs *table.RecordSet, backlog Source, opts Options, res *Result) (*table.RecordSet, error) {
	secondary, err := backlog.Load()
	if err != nil {
		if opts.BacklogRequired {
			return nil, fmt.Errorf("load backlog: %w", err)
		}
		res.Warnings = append(res.Warnings, jira.Warning{
			Code:    jira.WarnSecondaryUnavailable,
			Message: fmt.Sprintf("backlog not loaded: %v", err),
		})
		return rs, nil
	}
	key := opts.JoinKey
	if key == "" {
		key = opts.Fields.Key
	}
	joined, stats, warn, err := table.LeftJoin(rs, secondary, key, opts.BacklogKey, table.JoinOptions{Suffix: opts.JoinSuffix})
	if err != nil {
		res.Warnings = append(res.Warnings, jira.Warning{
			Code:    jira.WarnJoinSkipped,
			Field:   key,
			Message: err.Error(),
		})
		return rs, nil
	}
	if warn != nil {
		res.Warnings = append(res.Warnings, jira.Warning{
			Code:    jira.WarnJoinSkipped,
			Field:   warn.Key,
			Message: fmt.Sprintf("column %q is not present in the backlog; join skipped", warn.Key),
		})
		return rs, nil
	}
	res.Join = &stats
	slog.Info("pipeline.join.done", "run", res.RunID, "matched", stats.Matched, "unmatched", stats.Unmatched, "duplicate_keys", stats.DuplicateKeys)
	return joined, nil
}
