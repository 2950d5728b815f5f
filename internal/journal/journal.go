// Package journal keeps an append-only XLSX workbook of persisted leads for
// field-office review. Best effort only: a journal failure never changes the
// outcome of a pipeline run.
package journal

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"voice-leads-go/internal/airtable"
	"voice-leads-go/internal/lead"
)

const sheetName = "Leads"

var header = []any{
	"Created At", "Record ID", "Customer Name", "Contact Phone", "Contact Email",
	"Property Address", "Lead Source", "Job Segment", "Priority", "Record URL",
}

type Book struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func Open(path string) *Book {
	return &Book{path: path, now: time.Now}
}

// Append writes one row for a created record. Concurrent runs are serialized
// on the workbook; everything else in the service stays per-run.
func (b *Book) Append(rec airtable.Record, l lead.NormalizedLead) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	f, err := b.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return fmt.Errorf("read journal rows: %w", err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("journal cell: %w", err)
	}

	row := []any{
		b.now().UTC().Format(time.RFC3339),
		rec.ID,
		l.CustomerName,
		deref(l.ContactPhone),
		deref(l.ContactEmail),
		deref(l.PropertyAddress),
		deref(l.LeadSource),
		deref(l.JobSegment),
		deref(l.Priority),
		rec.URL,
	}
	if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
		return fmt.Errorf("write journal row: %w", err)
	}

	if err := f.SaveAs(b.path); err != nil {
		return fmt.Errorf("save journal: %w", err)
	}
	return nil
}

func (b *Book) open() (*excelize.File, error) {
	if _, err := os.Stat(b.path); os.IsNotExist(err) {
		f := excelize.NewFile()
		idx, err := f.NewSheet(sheetName)
		if err != nil {
			return nil, fmt.Errorf("create journal sheet: %w", err)
		}
		f.SetActiveSheet(idx)
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("drop default sheet: %w", err)
		}
		if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
			return nil, fmt.Errorf("write journal header: %w", err)
		}
		return f, nil
	}

	f, err := excelize.OpenFile(b.path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return f, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
