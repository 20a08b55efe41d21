// Package importer reads tabular inventory snapshots into normalized
// source records. The importer is header-driven: it locates columns by
// name, not position, so dealer spreadsheets can carry extra columns or
// reorder them freely.
package importer

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/motorgrid/lotsync/internal/model"
	"github.com/motorgrid/lotsync/internal/normalize"
)

// Options configures the XLSX importer.
type Options struct {
	SheetIndex   int    // default 0
	SheetName    string // if set, overrides SheetIndex
	BaseCurrency string // assumed when a price cell has no currency marker
}

// columnAliases maps the attribute name to the header spellings seen in
// dealer exports. Headers are normalized before lookup, so accents and
// case do not matter.
var columnAliases = map[string][]string{
	"brand":   {"marca", "brand", "make"},
	"model":   {"modelo", "model"},
	"version": {"version", "trim"},
	"color":   {"color", "colour"},
	"plate":   {"patente", "dominio", "plate", "placa"},
	"year":    {"ano", "anio", "year", "modelo ano"},
	"mileage": {"km", "kms", "kilometros", "kilometraje", "mileage", "odometro"},
	"price":   {"precio", "price", "valor", "importe"},
}

// Read parses an XLSX snapshot into source records. Row numbers are
// 1-based sheet positions, so the first data row under a header is 2.
// Rows with no brand and no model are skipped as separators/footers.
func Read(path string, opts Options) ([]model.SourceRecord, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("importer: sheet %q is empty", sheet.Name)
	}

	cols, err := mapColumns(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	var records []model.SourceRecord
	skipped := 0
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		rec, ok := buildRecord(cells, cols, opts.BaseCurrency, i+2)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	zap.L().Info("importer: snapshot read",
		zap.String("path", path),
		zap.String("sheet", sheet.Name),
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped),
	)
	return records, nil
}

func getSheet(f *xlsx.File, opts Options) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("importer: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}
	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("importer: sheet index %d out of range (file has %d sheets)",
			opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

// mapColumns resolves header names to column indexes. Brand and model
// are required; everything else is optional.
func mapColumns(header []string) (map[string]int, error) {
	byAlias := make(map[string]string, len(columnAliases)*3)
	for attr, aliases := range columnAliases {
		for _, a := range aliases {
			byAlias[a] = attr
		}
	}

	cols := make(map[string]int, len(columnAliases))
	for idx, h := range header {
		if attr, ok := byAlias[normalize.Text(h)]; ok {
			if _, dup := cols[attr]; !dup {
				cols[attr] = idx
			}
		}
	}

	for _, required := range []string{"brand", "model"} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("importer: required column %q not found in header", required)
		}
	}
	return cols, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func buildRecord(cells []string, cols map[string]int, baseCurrency string, row int) (model.SourceRecord, bool) {
	cell := func(attr string) string {
		idx, ok := cols[attr]
		if !ok || idx >= len(cells) {
			return ""
		}
		return cells[idx]
	}

	rec := model.SourceRecord{
		Row:     row,
		Brand:   normalize.Text(cell("brand")),
		Model:   normalize.Text(cell("model")),
		Version: normalize.Text(cell("version")),
		Color:   normalize.Text(cell("color")),
		Plate:   normalize.Plate(cell("plate")),
	}
	if rec.Brand == "" && rec.Model == "" {
		return model.SourceRecord{}, false
	}

	if v, ok := normalize.Int(cell("year")); ok {
		rec.Year = &v
	}
	if v, ok := normalize.Int(cell("mileage")); ok {
		rec.Mileage = &v
	}
	if m, ok := normalize.Price(cell("price"), baseCurrency); ok {
		rec.Price = &m
	}
	return rec, true
}
