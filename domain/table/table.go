package table

import (
	"fmt"
	"strings"

	lo "github.com/samber/lo"
)

// Schema is the ordered list of field names shared by every record of a RecordSet.
// Names are unique.
type Schema struct {
	fields []string
	index  map[string]int
}

// NewSchema builds a schema, rejecting duplicate names.
func NewSchema(fields []string) (*Schema, error) {
	s := &Schema{fields: append([]string{}, fields...), index: make(map[string]int, len(fields))}
	for i, f := range s.fields {
		if _, dup := s.index[f]; dup {
			return nil, fmt.Errorf("duplicate field %q", f)
		}
		s.index[f] = i
	}
	return s, nil
}

func (s *Schema) Fields() []string { return append([]string{}, s.fields...) }

func (s *Schema) Len() int { return len(s.fields) }

func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Value is a raw cell. A null value (Valid == false) is different from an empty string:
// it marks a field with no source data, e.g. the right side of an unmatched join.
type Value struct {
	Text  string
	Valid bool
}

func String(s string) Value { return Value{Text: s, Valid: true} }

func Null() Value { return Value{} }

// Record is one row. Its values line up with the schema of the RecordSet it came from.
type Record struct {
	schema *Schema
	values []Value
}

func (r Record) Schema() *Schema { return r.schema }

// Value returns the cell for name; unknown fields read as null.
func (r Record) Value(name string) Value {
	if r.schema == nil {
		return Null()
	}
	i, ok := r.schema.index[name]
	if !ok {
		return Null()
	}
	return r.values[i]
}

// Get returns the text of name and whether it is present and non-null.
func (r Record) Get(name string) (string, bool) {
	v := r.Value(name)
	return v.Text, v.Valid
}

func (r Record) Values() []Value { return append([]Value{}, r.values...) }

// Strings returns the row text in schema order, nulls as "".
func (r Record) Strings() []string {
	return lo.Map(r.values, func(v Value, _ int) string { return v.Text })
}

// RecordSet is an ordered table of records sharing one schema.
type RecordSet struct {
	schema  *Schema
	records []Record
}

func New(fields []string) (*RecordSet, error) {
	s, err := NewSchema(fields)
	if err != nil {
		return nil, err
	}
	return &RecordSet{schema: s}, nil
}

func (rs *RecordSet) Schema() *Schema { return rs.schema }

func (rs *RecordSet) Len() int { return len(rs.records) }

func (rs *RecordSet) At(i int) Record { return rs.records[i] }

func (rs *RecordSet) Records() []Record { return append([]Record{}, rs.records...) }

// Append adds a row; values must match the schema width.
func (rs *RecordSet) Append(values []Value) error {
	if len(values) != rs.schema.Len() {
		return fmt.Errorf("row has %d values, schema has %d fields", len(values), rs.schema.Len())
	}
	rs.records = append(rs.records, Record{schema: rs.schema, values: append([]Value{}, values...)})
	return nil
}

// AppendStrings adds a row of non-null text values.
func (rs *RecordSet) AppendStrings(values []string) error {
	return rs.Append(lo.Map(values, func(s string, _ int) Value { return String(s) }))
}

// AddField appends a computed column to every record in place.
func (rs *RecordSet) AddField(name string, compute func(Record) Value) error {
	if rs.schema.Has(name) {
		return fmt.Errorf("field %q already exists", name)
	}
	s, err := NewSchema(append(rs.schema.Fields(), name))
	if err != nil {
		return err
	}
	for i, r := range rs.records {
		vals := append(append(make([]Value, 0, s.Len()), r.values...), compute(r))
		rs.records[i] = Record{schema: s, values: vals}
	}
	rs.schema = s
	return nil
}

// Filter returns a new RecordSet with the records for which keep is true.
func (rs *RecordSet) Filter(keep func(Record) bool) *RecordSet {
	return &RecordSet{schema: rs.schema, records: lo.Filter(rs.records, func(r Record, _ int) bool { return keep(r) })}
}

// Distinct returns the non-null values of name in order of first appearance.
func (rs *RecordSet) Distinct(name string) []string {
	vals := lo.FilterMap(rs.records, func(r Record, _ int) (string, bool) { return r.Get(name) })
	return lo.Uniq(vals)
}

// Concat stacks record sets. The resulting schema is the union of the inputs' fields in order
// of first appearance; fields a set lacks are null in its rows.
func Concat(sets ...*RecordSet) (*RecordSet, error) {
	var fields []string
	for _, s := range sets {
		fields = append(fields, s.schema.fields...)
	}
	out, err := New(lo.Uniq(fields))
	if err != nil {
		return nil, err
	}
	for _, s := range sets {
		for _, r := range s.records {
			vals := lo.Map(out.schema.fields, func(f string, _ int) Value { return r.Value(f) })
			out.records = append(out.records, Record{schema: out.schema, values: vals})
		}
	}
	return out, nil
}

// UniqueNames makes header names unique and non-empty. A blank name becomes column_N (1-based)
// and a repeated name gets a .N suffix, the second occurrence being .1.
func UniqueNames(raw []string) []string {
	names := make([]string, len(raw))
	seen := map[string]struct{}{}
	for i, v := range raw {
		name := strings.TrimSpace(v)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if _, taken := seen[name]; taken {
			base := name
			for n := 1; ; n++ {
				candidate := fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[candidate]; !taken {
					name = candidate
					break
				}
			}
		}
		seen[name] = struct{}{}
		names[i] = name
	}
	return names
}
