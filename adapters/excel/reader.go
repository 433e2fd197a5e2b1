// Package excel reads run snapshots from .xlsx workbooks.
package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"trustdebt/domain/category"
	"trustdebt/domain/signal"
	"trustdebt/domain/snapshot"
	"trustdebt/internal"
	"trustdebt/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Source reads a snapshot from a workbook with a Categories sheet, a Signals
// sheet and an optional Pairs sheet.
type Source struct {
	config SourceConfig
	logger *internal.Logger
}

// NewSource creates a workbook source.
func NewSource(config SourceConfig, logger *internal.Logger) *Source {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Source{config: config, logger: logger}
}

// Describe names the workbook for logs and error messages.
func (s *Source) Describe() string {
	return "workbook " + s.config.FilePath
}

// Load opens the workbook and assembles the snapshot.
func (s *Source) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(s.config.FilePath); os.IsNotExist(err) {
		return nil, errors.NotFound("workbook " + s.config.FilePath)
	}

	startTime := time.Now()
	f, err := excelize.OpenFile(s.config.FilePath)
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("failed to open workbook: %v", err))
	}
	defer f.Close()

	categories, err := s.readSheet(f, s.config.CategoriesSheet, true)
	if err != nil {
		return nil, err
	}
	signals, err := s.readSheet(f, s.config.SignalsSheet, true)
	if err != nil {
		return nil, err
	}
	pairs, err := s.readSheet(f, s.config.PairsSheet, false)
	if err != nil {
		return nil, err
	}

	snap := &snapshot.Snapshot{Project: s.project()}
	if snap.Categories, err = parseCategories(categories, s.config.KeywordSeparator); err != nil {
		return nil, err
	}
	if snap.Samples, snap.Signals, err = parseSignals(signals); err != nil {
		return nil, err
	}
	if pairs != nil {
		if snap.Pairs, err = parsePairs(pairs); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("[excel] %s read in %.2fms: categories=%d keywords=%d samples=%d",
		s.config.FilePath, float64(time.Since(startTime).Nanoseconds())/1e6,
		len(snap.Categories), len(snap.Signals), len(snap.Samples))
	return snap, nil
}

func (s *Source) project() string {
	if p := strings.TrimSpace(s.config.Project); p != "" {
		return p
	}
	base := filepath.Base(s.config.FilePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readSheet returns nil without error when an optional sheet is absent.
func (s *Source) readSheet(f *excelize.File, name string, required bool) (*SheetData, error) {
	if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		if required {
			return nil, errors.InvalidInput(fmt.Sprintf("workbook has no %q sheet", name))
		}
		return nil, nil
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("failed to read sheet %q: %v", name, err))
	}
	if len(rows) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("sheet %q has no header row", name))
	}
	return processRows(name, rows), nil
}

// processRows converts raw string rows into SheetData. Blank rows are
// skipped and short rows read as empty cells.
func processRows(name string, rows [][]string) *SheetData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	data := &SheetData{Name: name, Headers: headers}
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData, len(headers))
		blank := true
		for j, cell := range rows[i] {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
				if rowData[headers[j]] != "" {
					blank = false
				}
			}
		}
		if !blank {
			data.Rows = append(data.Rows, rowData)
			data.Lines = append(data.Lines, i+1)
		}
	}
	return data
}

func requireHeaders(sheet *SheetData, names ...string) error {
	have := make(map[string]bool, len(sheet.Headers))
	for _, h := range sheet.Headers {
		have[h] = true
	}
	for _, n := range names {
		if !have[n] {
			return errors.InvalidInput(fmt.Sprintf("sheet %q is missing column %q", sheet.Name, n))
		}
	}
	return nil
}

func cellError(sheet *SheetData, row int, column, value string) error {
	return errors.InvalidInput(fmt.Sprintf("sheet %q row %d: invalid %s %q", sheet.Name, sheet.Lines[row], column, value))
}

func parseCategories(sheet *SheetData, sep string) ([]category.Category, error) {
	if err := requireHeaders(sheet, ColID, ColKeywords, ColWeight); err != nil {
		return nil, err
	}
	if sep == "" {
		sep = ";"
	}
	out := make([]category.Category, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		c := category.Category{
			ID:          row[ColID],
			DisplayName: row[ColDisplayName],
			ParentID:    row[ColParentID],
			Keywords:    strings.Split(row[ColKeywords], sep),
		}
		if v := row[ColDepth]; v != "" {
			depth, err := strconv.Atoi(v)
			if err != nil {
				return nil, cellError(sheet, i, ColDepth, v)
			}
			c.Depth = depth
		} else {
			c.Depth = len(category.Segments(c.ID)) - 1
		}
		weight, err := strconv.ParseFloat(row[ColWeight], 64)
		if err != nil {
			return nil, cellError(sheet, i, ColWeight, row[ColWeight])
		}
		c.Weight = weight
		out = append(out, c)
	}
	return out, nil
}

// parseSignals reads one row per keyword and side. A keyword with only one
// side present reads zero on the other.
func parseSignals(sheet *SheetData) ([]string, []signal.KeywordSignal, error) {
	if err := requireHeaders(sheet, ColKeyword, ColSide); err != nil {
		return nil, nil, err
	}
	var samples []string
	for _, h := range sheet.Headers {
		switch h {
		case ColKeyword, ColSide, "":
		default:
			samples = append(samples, h)
		}
	}

	index := make(map[string]int)
	var out []signal.KeywordSignal
	for i, row := range sheet.Rows {
		kw := category.NormalizeKeyword(row[ColKeyword])
		if kw == "" {
			return nil, nil, cellError(sheet, i, ColKeyword, row[ColKeyword])
		}
		vec := make([]float64, len(samples))
		for j, sample := range samples {
			raw := row[sample]
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, nil, cellError(sheet, i, sample, raw)
			}
			vec[j] = v
		}

		pos, ok := index[kw]
		if !ok {
			pos = len(out)
			index[kw] = pos
			out = append(out, signal.KeywordSignal{
				Keyword: kw,
				Intent:  make([]float64, len(samples)),
				Reality: make([]float64, len(samples)),
			})
		}
		switch strings.ToLower(row[ColSide]) {
		case SideIntent:
			out[pos].Intent = vec
		case SideReality:
			out[pos].Reality = vec
		default:
			return nil, nil, cellError(sheet, i, ColSide, row[ColSide])
		}
	}
	return samples, out, nil
}

func parsePairs(sheet *SheetData) ([]signal.PairEntry, error) {
	if err := requireHeaders(sheet, ColRow, ColCol, ColIntent, ColReality); err != nil {
		return nil, err
	}
	out := make([]signal.PairEntry, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		entry := signal.PairEntry{Row: row[ColRow], Col: row[ColCol]}
		var err error
		if entry.Intent, err = strconv.ParseFloat(row[ColIntent], 64); err != nil {
			return nil, cellError(sheet, i, ColIntent, row[ColIntent])
		}
		if entry.Reality, err = strconv.ParseFloat(row[ColReality], 64); err != nil {
			return nil, cellError(sheet, i, ColReality, row[ColReality])
		}
		out = append(out, entry)
	}
	return out, nil
}
