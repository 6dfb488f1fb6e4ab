package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"pr-radar/internal/features/radar/models"
)

// ExportTimeLayout is the timestamp format used in exported tables
const ExportTimeLayout = "2006-01-02 15:04"

// Table is a flat projection with a stable column order
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// SavedTable projects archived articles for spreadsheet export
func SavedTable(saved []models.SavedArticle, loc *time.Location) Table {
	table := Table{
		Name:   "Saved_DB",
		Header: []string{"폴더", "기사제목", "언론사", "발행일시", "저장일시", "부정키워드", "링크"},
		Rows:   make([][]string, 0, len(saved)),
	}

	for _, s := range saved {
		table.Rows = append(table.Rows, []string{
			s.Folder,
			s.Title,
			s.Press,
			formatExportTime(s.PublishedAt, loc),
			formatExportTime(s.SavedAt, loc),
			s.NegativeHits,
			s.Link,
		})
	}
	return table
}

// CorrectionTable projects correction requests for spreadsheet export
func CorrectionTable(items []models.CorrectionItem, loc *time.Location) Table {
	table := Table{
		Name:   "Corrections",
		Header: []string{"발행일시", "언론사", "기사제목", "링크", "진행상태", "수정내용메모"},
		Rows:   make([][]string, 0, len(items)),
	}

	for _, item := range items {
		table.Rows = append(table.Rows, []string{
			formatExportTime(item.PublishedAt, loc),
			item.Press,
			item.Title,
			item.Link,
			item.Status.Label(),
			item.Memo,
		})
	}
	return table
}

// WriteCSV writes the table as UTF-8 CSV with a byte order mark so spreadsheet
// tools detect the encoding
func (t Table) WriteCSV(w io.Writer) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("failed to write bom: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// FileName returns a dated download name for the table
func (t Table) FileName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format("20060102"))
}

func formatExportTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(ExportTimeLayout)
}
