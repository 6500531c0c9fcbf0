package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"jira-stats/domain/jira"
	"jira-stats/domain/table"
)

// Separator is the field delimiter spreadsheet tools expect for Portuguese locales.
const Separator = ';'

// bom makes spreadsheet tools read the file as UTF-8.
var bom = []byte{0xEF, 0xBB, 0xBF}

func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

func newWriter(out io.Writer) (*csv.Writer, error) {
	if _, err := out.Write(bom); err != nil {
		return nil, err
	}
	w := csv.NewWriter(out)
	w.Comma = Separator
	return w, nil
}

// WriteRecordSet writes rs to path as semicolon separated UTF-8 with a byte order mark.
func WriteRecordSet(path string, rs *table.RecordSet) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, rs)
}

// Write writes the header then every record; null values are written as empty cells.
func Write(out io.Writer, rs *table.RecordSet) error {
	w, err := newWriter(out)
	if err != nil {
		return err
	}
	defer w.Flush()
	if err := w.Write(rs.Schema().Fields()); err != nil {
		return err
	}
	for _, r := range rs.Records() {
		if err := w.Write(r.Strings()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteIssues writes one row per typed issue with RFC3339 timestamps.
func WriteIssues(path string, issues []jira.Issue) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w, err := newWriter(f)
	if err != nil {
		return err
	}
	defer w.Flush()
	headers := []string{"key", "item_type", "status", "assignee", "parent", "priority", "version", "created", "resolved", "first_response", "pre_date", "prod_date", "first_response_latency_days", "resolution_latency_days", "month"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, is := range issues {
		row := []string{
			is.Key,
			is.ItemType,
			is.Status,
			is.Assignee,
			is.Parent,
			is.Priority,
			is.Version,
			timestamp(is.Created),
			timestamp(is.Resolved),
			timestamp(is.FirstResponse),
			timestamp(is.PreDate),
			timestamp(is.ProdDate),
			strconv.Itoa(is.FirstResponseDays),
			strconv.Itoa(is.ResolutionDays),
			is.Month,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func timestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ReadRows reads a file written by WriteRecordSet back as one map per row keyed by header.
func ReadRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read decodes semicolon separated rows, skipping a leading byte order mark. Short rows leave
// their trailing headers out of the map.
func Read(in io.Reader) ([]map[string]string, error) {
	br := bufio.NewReader(in)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		_, _ = br.Discard(len(bom))
	}
	r := csv.NewReader(br)
	r.Comma = Separator
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]string, 0, max(len(records)-1, 0))
	if len(records) == 0 {
		return rows, nil
	}
	header := records[0]
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i := 0; i < len(header) && i < len(rec); i++ {
			row[header[i]] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
