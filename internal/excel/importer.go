package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/revtrack/internal/review"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath      string // Path to the Excel or CSV file
	UserID        string // User the problems are imported for
	Sheet         string // Target review sheet slug
	ProblemColumn string // Column with the problem id (Excel only)
	SheetName     string // Name of the worksheet to import (Excel only)
	SkipHeader    bool   // Skip the header row
	StartRow      int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		ProblemColumn: "A",
		SheetName:     "Sheet1",
		SkipHeader:    true,
		StartRow:      2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportSolvedProblems bulk-feeds a list of already solved problem ids into
// one (user, sheet) review set. Each row goes through the regular intake
// path, so re-importing a file is harmless: existing problems are skipped.
func ImportSolvedProblems(ctx context.Context, service *review.Service, config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(ctx, service, config)
	}
	return importFromExcel(ctx, service, config)
}

// importFromExcel imports problem ids from an Excel file
func importFromExcel(ctx context.Context, service *review.Service, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %v", config.SheetName, err)
	}

	colIdx := columnIndex(config.ProblemColumn)
	result := &ImportResult{Errors: make([]string, 0)}
	now := time.Now()

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow {
			continue
		}
		if colIdx < 0 || colIdx >= len(row) {
			continue
		}
		importOne(ctx, service, config, row[colIdx], rowNum, now, result)
	}

	return result, nil
}

// importFromCSV imports problem ids from a CSV file (first column)
func importFromCSV(ctx context.Context, service *review.Service, config ImportConfig) (*ImportResult, error) {
	f, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	result := &ImportResult{Errors: make([]string, 0)}
	now := time.Now()
	rowNum := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %v", err)
		}
		rowNum++
		if rowNum == 1 && config.SkipHeader {
			continue
		}
		if len(record) == 0 {
			continue
		}
		importOne(ctx, service, config, record[0], rowNum, now, result)
	}

	return result, nil
}

// importOne parses one cell and runs it through intake
func importOne(ctx context.Context, service *review.Service, config ImportConfig, cell string, rowNum int, now time.Time, result *ImportResult) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return
	}
	result.TotalProcessed++

	problemID, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid problem id %q", rowNum, cell))
		return
	}

	_, created, err := service.Intake(ctx, config.UserID, config.Sheet, problemID, now)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
		return
	}
	if created {
		result.Created++
	} else {
		result.Skipped++
	}
}

// columnIndex converts an Excel column letter ("A", "B", ...) to a zero-based
// index
func columnIndex(column string) int {
	idx := 0
	for _, r := range strings.ToUpper(column) {
		idx = idx*26 + int(r-'A') + 1
	}
	return idx - 1
}
