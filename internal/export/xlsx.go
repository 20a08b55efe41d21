// Package export writes match and reconciliation reports to XLSX and
// YAML files.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/motorgrid/lotsync/internal/model"
	"github.com/motorgrid/lotsync/internal/reconcile"
)

// WriteMatchReport writes one row per source record with its best
// candidate and confidence columns.
func WriteMatchReport(path string, results []model.MatchResult) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Matches")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	writeRow(sheet, "Row", "Brand", "Model", "Year",
		"Matched ID", "Matched Model", "Score", "Confidence", "Candidates")

	for _, r := range results {
		cells := []string{
			strconv.Itoa(r.Source.Row),
			r.Source.Brand,
			r.Source.Model,
			formatIntPtr(r.Source.Year),
		}
		if r.Best != nil {
			cells = append(cells,
				r.Best.Catalog.ID,
				r.Best.Catalog.Model,
				fmt.Sprintf("%.4f", r.Best.Score),
				string(r.Best.Confidence),
				strconv.Itoa(len(r.Candidates)),
			)
		} else {
			cells = append(cells, "", "", "", "no_match", "0")
		}
		writeRow(sheet, cells...)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save match report")
	}
	zap.L().Info("export: match report written",
		zap.String("path", path),
		zap.Int("rows", len(results)),
	)
	return nil
}

// WriteReconcileReport writes the four partition categories to separate
// sheets, with per-field change annotations on the Modified sheet.
func WriteReconcileReport(path string, p *reconcile.Partition) error {
	f := xlsx.NewFile()

	if err := writeRecordSheet(f, "Unchanged", p.Unchanged); err != nil {
		return err
	}

	modified, err := f.AddSheet("Modified")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	writeRow(modified, "ID", "Brand", "Model", "Changes")
	for _, m := range p.Modified {
		changes := make([]string, len(m.Changes))
		for i, c := range m.Changes {
			changes[i] = c.String()
		}
		writeRow(modified, m.Fresh.ID, m.Fresh.Brand, m.Fresh.Model, strings.Join(changes, "; "))
	}

	if err := writeRecordSheet(f, "New", p.New); err != nil {
		return err
	}
	if err := writeRecordSheet(f, "Deleted", p.Deleted); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save reconcile report")
	}
	zap.L().Info("export: reconcile report written",
		zap.String("path", path),
		zap.String("partition", p.String()),
	)
	return nil
}

// WriteFinalSet writes the merged final record set (unchanged, modified
// and new; never deleted) as a single sheet.
func WriteFinalSet(path string, p *reconcile.Partition) error {
	return WriteRecordSet(path, "Final", p.Merged())
}

// WriteRecordSet writes a flat record list as a single named sheet.
func WriteRecordSet(path, sheetName string, records []model.CatalogRecord) error {
	f := xlsx.NewFile()
	if err := writeRecordSheet(f, sheetName, records); err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save record set")
	}
	zap.L().Info("export: record set written",
		zap.String("path", path),
		zap.Int("records", len(records)),
	)
	return nil
}

// ReadRecordSet reads a record sheet previously written by
// WriteRecordSet, so an exported snapshot can serve as the prior side
// of a reconciliation. An empty sheetName selects the first sheet.
func ReadRecordSet(path, sheetName string) ([]model.CatalogRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: open %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("export: %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if sheetName != "" {
		s, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("export: sheet %q not found in %s", sheetName, path)
		}
		sheet = s
	}

	var records []model.CatalogRecord
	for _, row := range sheet.Rows {
		id := cellValue(row, 0)
		if id == "" || id == "ID" {
			continue
		}
		r := model.CatalogRecord{
			ID:      id,
			Brand:   cellValue(row, 1),
			Model:   cellValue(row, 2),
			Version: cellValue(row, 3),
			Year:    parseIntCell(row, 4),
			Mileage: parseIntCell(row, 5),
		}
		if amount, err := strconv.ParseFloat(cellValue(row, 6), 64); err == nil {
			r.Price = &model.Money{Amount: amount, Currency: cellValue(row, 7)}
		}
		r.Active, _ = strconv.ParseBool(cellValue(row, 8))
		records = append(records, r)
	}
	return records, nil
}

func cellValue(row *xlsx.Row, i int) string {
	if row == nil || i >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[i].String())
}

func parseIntCell(row *xlsx.Row, i int) *int {
	v, err := strconv.Atoi(cellValue(row, i))
	if err != nil {
		return nil
	}
	return &v
}

func writeRecordSheet(f *xlsx.File, name string, records []model.CatalogRecord) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}
	writeRow(sheet, "ID", "Brand", "Model", "Version", "Year", "Mileage", "Price", "Currency", "Active")
	for _, r := range records {
		price, currency := "", ""
		if r.Price != nil && !r.Price.IsEmpty() {
			price = strconv.FormatFloat(r.Price.Amount, 'f', -1, 64)
			currency = r.Price.Currency
		}
		writeRow(sheet,
			r.ID, r.Brand, r.Model, r.Version,
			formatIntPtr(r.Year), formatIntPtr(r.Mileage),
			price, currency, strconv.FormatBool(r.Active),
		)
	}
	return nil
}

func writeRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
