package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

// SheetWriter appends rows to an excelize workbook one sheet at a time.
type SheetWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

func NewSheetWriter() *SheetWriter {
	return &SheetWriter{file: excelize.NewFile()}
}

// AddSheet starts a sheet. The first call renames the default sheet.
func (w *SheetWriter) AddSheet(name string) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}

	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes a bold header row.
func (w *SheetWriter) WriteHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.WriteRow(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	start, _ := excelize.CoordinatesToCellName(1, w.currentRow-1)
	end, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
	return w.file.SetCellStyle(w.currentSheet, start, end, style)
}

func (w *SheetWriter) WriteRow(row []any) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}
	w.currentRow++
	return nil
}

func (w *SheetWriter) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

func (w *SheetWriter) Close() error {
	return w.file.Close()
}
