package export

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook renders tables as an xlsx workbook, one sheet per table, with a bold header row.
func WriteWorkbook(w io.Writer, tables []Table) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	first := f.GetSheetName(0)
	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(first, t.Name); err != nil {
				return fmt.Errorf("renaming sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", t.Name, err)
		}

		for r, row := range t.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
				return fmt.Errorf("writing %s row %d: %w", t.Name, r+1, err)
			}
		}
		if len(t.Rows) > 0 {
			if err := f.SetRowStyle(t.Name, 1, 1, header); err != nil {
				return fmt.Errorf("styling %s header: %w", t.Name, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// FileWriter implements SheetWriter by replacing an xlsx file on disk.
type FileWriter struct {
	path string
}

// NewFileWriter creates a FileWriter targeting path.
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

func (w *FileWriter) Write(_ context.Context, tables []Table) error {
	tmp := w.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := WriteWorkbook(out, tables); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("replacing %s: %w", w.path, err)
	}
	return nil
}
