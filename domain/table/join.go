package table

import (
	"errors"
	"fmt"
)

// ErrJoinKeyMissing reports a right-hand table without the join key column.
var ErrJoinKeyMissing = errors.New("join key missing from secondary table")

// DefaultJoinSuffix is appended to right-hand fields whose name is already used on the left.
const DefaultJoinSuffix = "_right"

// JoinWarning is returned when the join could not run but the caller may continue with the
// left table alone.
type JoinWarning struct {
	Key string
	Err error
}

func (w *JoinWarning) Error() string { return fmt.Sprintf("join skipped: %s %q", w.Err, w.Key) }

func (w *JoinWarning) Unwrap() error { return w.Err }

type JoinOptions struct {
	Suffix string
}

// JoinStats counts how left records fared against the right table.
type JoinStats struct {
	Matched   int
	Unmatched int
	// DuplicateKeys counts right-side keys seen more than once; only the first row per key is used.
	DuplicateKeys int
}

// LeftJoin extends every left record with the fields of the first right record whose rightKey
// equals the record's leftKey (exact string comparison). Left order and cardinality are kept;
// unmatched records get null right fields. Null keys never match.
//
// When right has no rightKey column the left table is returned unchanged together with a
// *JoinWarning; a left table without leftKey is an error.
func LeftJoin(left, right *RecordSet, leftKey, rightKey string, opts JoinOptions) (*RecordSet, JoinStats, *JoinWarning, error) {
	var stats JoinStats
	if !left.schema.Has(leftKey) {
		return nil, stats, nil, fmt.Errorf("left table has no field %q", leftKey)
	}
	if !right.schema.Has(rightKey) {
		return left, stats, &JoinWarning{Key: rightKey, Err: ErrJoinKeyMissing}, nil
	}
	suffix := opts.Suffix
	if suffix == "" {
		suffix = DefaultJoinSuffix
	}

	fields := left.schema.Fields()
	taken := map[string]struct{}{}
	for _, f := range fields {
		taken[f] = struct{}{}
	}
	for _, f := range right.schema.fields {
		name := f
		for {
			if _, clash := taken[name]; !clash {
				break
			}
			name += suffix
		}
		taken[name] = struct{}{}
		fields = append(fields, name)
	}
	out, err := New(fields)
	if err != nil {
		return nil, stats, nil, err
	}

	byKey := make(map[string]Record, right.Len())
	for _, r := range right.records {
		k, ok := r.Get(rightKey)
		if !ok {
			continue
		}
		if _, seen := byKey[k]; seen {
			stats.DuplicateKeys++
			continue
		}
		byKey[k] = r
	}

	width := right.schema.Len()
	for _, l := range left.records {
		vals := make([]Value, 0, out.schema.Len())
		vals = append(vals, l.values...)
		k, ok := l.Get(leftKey)
		match, found := byKey[k]
		if ok && found {
			stats.Matched++
			vals = append(vals, match.values...)
		} else {
			stats.Unmatched++
			vals = append(vals, make([]Value, width)...)
		}
		out.records = append(out.records, Record{schema: out.schema, values: vals})
	}
	return out, stats, nil, nil
}
