package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"invoice-crossref/internal/domain"
)

var (
	resultHeaders  = []string{"pdf_name", "page", "token", "matched_type", "matched_hinban", "zaiko"}
	failureHeaders = []string{"pdf_name", "page", "token"}
)

// Exporter renders committed result and failure sequences as tabular files.
// Rows are written in the same order as the in-memory sequences.
type Exporter struct{}

// NewExporter creates an exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// WriteResultsCSV streams the result rows as CSV.
func (e *Exporter) WriteResultsCSV(w io.Writer, rows []domain.MatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(resultRecord(r)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFailuresCSV streams the failure rows as CSV.
func (e *Exporter) WriteFailuresCSV(w io.Writer, rows []domain.FailureRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(failureHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(failureRecord(r)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultsXLSX writes the result rows as a single-sheet XLSX workbook.
func (e *Exporter) WriteResultsXLSX(w io.Writer, rows []domain.MatchResult) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = resultRecord(r)
	}
	return writeSheet(w, "Results", resultHeaders, records)
}

// WriteFailuresXLSX writes the failure rows as a single-sheet XLSX workbook.
func (e *Exporter) WriteFailuresXLSX(w io.Writer, rows []domain.FailureRecord) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = failureRecord(r)
	}
	return writeSheet(w, "Failures", failureHeaders, records)
}

func resultRecord(r domain.MatchResult) []string {
	zaiko := ""
	if r.Zaiko != nil {
		zaiko = *r.Zaiko
	}
	return []string{r.PDFName, strconv.Itoa(r.Page), r.Token, string(r.MatchedType), r.MatchedHinban, zaiko}
}

func failureRecord(r domain.FailureRecord) []string {
	return []string{r.PDFName, strconv.Itoa(r.Page), r.Token}
}

func writeSheet(w io.Writer, sheet string, headers []string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for rowIdx, record := range records {
		for col, v := range record {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}
