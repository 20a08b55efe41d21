package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/motorgrid/lotsync/internal/enrich"
)

// WriteEnrichReport writes one row per enriched record with the looked
// up technical data. Failed lookups keep their row with an error note.
func WriteEnrichReport(path string, results []enrich.Result) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Enriched")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	writeRow(sheet, "Row", "Brand", "Model", "Matched ID",
		"Transmission", "Fuel", "Doors", "Engine", "Error")

	for _, r := range results {
		cells := []string{
			strconv.Itoa(r.Match.Source.Row),
			r.Match.Source.Brand,
			r.Match.Source.Model,
		}
		if r.Match.Best != nil {
			cells = append(cells, r.Match.Best.Catalog.ID)
		} else {
			cells = append(cells, "")
		}
		if r.Data != nil {
			cells = append(cells, r.Data.Transmission, r.Data.Fuel,
				strconv.Itoa(r.Data.Doors), r.Data.Engine, "")
		} else {
			errMsg := ""
			if r.Err != nil {
				errMsg = r.Err.Error()
			}
			cells = append(cells, "", "", "", "", errMsg)
		}
		writeRow(sheet, cells...)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save enrich report")
	}
	zap.L().Info("export: enrich report written",
		zap.String("path", path),
		zap.Int("rows", len(results)),
	)
	return nil
}
