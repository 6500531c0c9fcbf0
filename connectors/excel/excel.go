// Package excel reads the backlog workbook into a record set.
package excel

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"jira-stats/domain/table"
)

var ErrNoSheets = errors.New("workbook has no sheets")

// ReadWorkbook reads every sheet of the workbook at path and stacks them into one record set.
func ReadWorkbook(path string) (*table.RecordSet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return read(f)
}

// Read is ReadWorkbook for an in-memory workbook.
func Read(r io.Reader) (*table.RecordSet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	return read(f)
}

func read(f *excelize.File) (*table.RecordSet, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	var sets []*table.RecordSet
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		rs, err := sheetSet(rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		if rs == nil {
			slog.Info("excel.sheet.empty", "sheet", name)
			continue
		}
		slog.Info("excel.sheet.read", "sheet", name, "records", rs.Len())
		sets = append(sets, rs)
	}
	if len(sets) == 0 {
		return table.New(nil)
	}
	return table.Concat(sets...)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// sheetSet takes the first non-blank row as the header. It returns nil for a sheet without one.
func sheetSet(rows [][]string) (*table.RecordSet, error) {
	var rs *table.RecordSet
	width := 0
	for _, row := range rows {
		if blank(row) {
			continue
		}
		if rs == nil {
			names := table.UniqueNames(row)
			width = len(names)
			var err error
			if rs, err = table.New(names); err != nil {
				return nil, err
			}
			continue
		}
		values := make([]table.Value, width)
		for i := range values {
			if i < len(row) && row[i] != "" {
				values[i] = table.String(row[i])
			}
		}
		if err := rs.Append(values); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// Source loads the backlog workbook at Path.
type Source struct {
	Path string
}

func (s Source) Load() (*table.RecordSet, error) {
	return ReadWorkbook(s.Path)
}
