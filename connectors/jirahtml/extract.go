// Package jirahtml extracts the issue table of an HTML report exported by the issue tracker.
package jirahtml

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jira-stats/domain/table"
)

// DefaultTableID is the id the tracker gives the issue table in its HTML export.
const DefaultTableID = "issuetable"

// NotFoundError means the document has no table with the requested id.
type NotFoundError struct {
	TableID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("table %q not found", e.TableID) }

// SchemaError means the table has no usable header row.
type SchemaError struct {
	TableID string
	Reason  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %q: %s", e.TableID, e.Reason)
}

// Stats describes what happened to the body rows.
type Stats struct {
	BodyRows    int
	DroppedRows int
}

// Extract reads the table identified by tableID. The header row's <th> texts become the schema;
// each body row with exactly one <td> per header field becomes a record. Rows with a different
// cell count are dropped and counted.
func Extract(r io.Reader, tableID string) (*table.RecordSet, Stats, error) {
	var stats Stats
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, stats, fmt.Errorf("parse html: %w", err)
	}
	tbl := doc.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		id, ok := s.Attr("id")
		return ok && id == tableID
	}).First()
	if tbl.Length() == 0 {
		return nil, stats, &NotFoundError{TableID: tableID}
	}

	rows := ownRows(tbl)
	headerRow := rows.FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.ChildrenFiltered("th").Length() > 0
	}).First()
	headers := cellTexts(headerRow.ChildrenFiltered("th"))
	if strings.Join(headers, "") == "" {
		return nil, stats, &SchemaError{TableID: tableID, Reason: "empty header row"}
	}
	names := table.UniqueNames(headers)
	if strings.Join(names, "\x00") != strings.Join(headers, "\x00") {
		slog.Warn("extract.header.renamed", "table", tableID, "headers", headers, "fields", names)
	}
	rs, err := table.New(names)
	if err != nil {
		return nil, stats, &SchemaError{TableID: tableID, Reason: err.Error()}
	}

	var appendErr error
	rows.EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if headerRow.Length() > 0 && tr.IsSelection(headerRow) {
			return true
		}
		cells := tr.ChildrenFiltered("td")
		if cells.Length() == 0 {
			return true
		}
		stats.BodyRows++
		values := cellTexts(cells)
		if len(values) != len(names) {
			stats.DroppedRows++
			slog.Warn("extract.row.dropped", "table", tableID, "row", stats.BodyRows, "cells", len(values), "fields", len(names))
			return true
		}
		if err := rs.AppendStrings(values); err != nil {
			appendErr = fmt.Errorf("row %d: %w", stats.BodyRows, err)
			return false
		}
		return true
	})
	if appendErr != nil {
		return nil, stats, appendErr
	}
	return rs, stats, nil
}

// ExtractFile opens path, extracts the table and closes the file.
func ExtractFile(path, tableID string) (*table.RecordSet, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer f.Close()
	rs, stats, err := Extract(f, tableID)
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}
	return rs, stats, nil
}

// ownRows returns the rows of tbl, skipping rows of tables nested inside its cells.
func ownRows(tbl *goquery.Selection) *goquery.Selection {
	sections := tbl.ChildrenFiltered("thead, tbody, tfoot")
	return sections.ChildrenFiltered("tr").Union(tbl.ChildrenFiltered("tr"))
}

func cellTexts(cells *goquery.Selection) []string {
	return cells.Map(func(_ int, c *goquery.Selection) string {
		return strings.TrimSpace(c.Text())
	})
}

// Source loads the report table from a file for the pipeline.
type Source struct {
	Path    string
	TableID string

	stats Stats
}

func (s *Source) Load() (*table.RecordSet, error) {
	id := s.TableID
	if id == "" {
		id = DefaultTableID
	}
	rs, stats, err := ExtractFile(s.Path, id)
	s.stats = stats
	return rs, err
}

func (s *Source) DroppedRows() int { return s.stats.DroppedRows }
