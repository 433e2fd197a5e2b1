package excel

import (
	"strings"

	"trustdebt/domain/snapshot"
	"trustdebt/internal/errors"

	"github.com/xuri/excelize/v2"
)

// WriteSnapshot exports a snapshot in the layout Source reads, so a JSON or
// YAML input can be handed to people who edit signal in a spreadsheet.
func WriteSnapshot(snap *snapshot.Snapshot, config SourceConfig) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", config.CategoriesSheet); err != nil {
		return errors.Wrap(err, "failed to name categories sheet")
	}
	sep := config.KeywordSeparator
	if sep == "" {
		sep = ";"
	}

	rows := [][]interface{}{{ColID, ColDisplayName, ColParentID, ColDepth, ColKeywords, ColWeight}}
	for _, c := range snap.Categories {
		rows = append(rows, []interface{}{c.ID, c.DisplayName, c.ParentID, c.Depth, strings.Join(c.Keywords, sep), c.Weight})
	}
	if err := writeRows(f, config.CategoriesSheet, rows); err != nil {
		return err
	}

	header := []interface{}{ColKeyword, ColSide}
	for _, sample := range snap.Samples {
		header = append(header, sample)
	}
	rows = [][]interface{}{header}
	for _, sig := range snap.Signals {
		rows = append(rows, signalRow(sig.Keyword, SideIntent, sig.Intent), signalRow(sig.Keyword, SideReality, sig.Reality))
	}
	if _, err := f.NewSheet(config.SignalsSheet); err != nil {
		return errors.Wrap(err, "failed to create signals sheet")
	}
	if err := writeRows(f, config.SignalsSheet, rows); err != nil {
		return err
	}

	if snap.HasExplicitPairs() {
		rows = [][]interface{}{{ColRow, ColCol, ColIntent, ColReality}}
		for _, p := range snap.Pairs {
			rows = append(rows, []interface{}{p.Row, p.Col, p.Intent, p.Reality})
		}
		if _, err := f.NewSheet(config.PairsSheet); err != nil {
			return errors.Wrap(err, "failed to create pairs sheet")
		}
		if err := writeRows(f, config.PairsSheet, rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(config.FilePath); err != nil {
		return errors.Wrapf(err, "failed to save %s", config.FilePath)
	}
	return nil
}

func signalRow(keyword, side string, values []float64) []interface{} {
	row := []interface{}{keyword, side}
	for _, v := range values {
		row = append(row, v)
	}
	return row
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "invalid cell coordinates")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write %s row %d", sheet, i+1)
		}
	}
	return nil
}
