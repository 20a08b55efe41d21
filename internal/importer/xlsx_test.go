package importer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "snapshot.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadSpanishHeaders(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Stock": {
			{"Marca", "Modelo", "Versión", "Año", "Km", "Precio", "Patente"},
			{"Toyota", "Corolla", "XEI 1.8", "2021", "30.500", "$ 20.300.000", "AB 123 CD"},
			{"Citroën", "C4", "", "2019", "78.000", "U$S 15.000", ""},
		},
	})

	records, err := Read(path, Options{BaseCurrency: "ARS"})
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, "toyota", first.Brand)
	assert.Equal(t, "corolla", first.Model)
	assert.Equal(t, "xei 1.8", first.Version)
	assert.Equal(t, "AB123CD", first.Plate)
	require.NotNil(t, first.Year)
	assert.Equal(t, 2021, *first.Year)
	require.NotNil(t, first.Mileage)
	assert.Equal(t, 30500, *first.Mileage)
	require.NotNil(t, first.Price)
	assert.Equal(t, 20300000.0, first.Price.Amount)
	assert.Equal(t, "ARS", first.Price.Currency)

	second := records[1]
	assert.Equal(t, 3, second.Row)
	assert.Equal(t, "citroen", second.Brand, "diacritics are stripped")
	assert.Empty(t, second.Plate)
	require.NotNil(t, second.Price)
	assert.Equal(t, "USD", second.Price.Currency)
}

func TestReadEnglishHeadersReordered(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Price", "Notes", "Model", "Make", "Year"},
			{"12000", "trade-in", "Focus", "Ford", "2018"},
		},
	})

	records, err := Read(path, Options{BaseCurrency: "USD"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ford", records[0].Brand)
	assert.Equal(t, "focus", records[0].Model)
	require.NotNil(t, records[0].Year)
	assert.Equal(t, 2018, *records[0].Year)
}

func TestReadSkipsBlankAndFooterRows(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Marca", "Modelo", "Precio"},
			{"Fiat", "Cronos", "9000000"},
			{"", "", ""},
			{"", "", "total: 1"},
		},
	})

	records, err := Read(path, Options{BaseCurrency: "ARS"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].Row)
}

func TestReadUnparsableCellsBecomeNil(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Marca", "Modelo", "Año", "Km", "Precio"},
			{"Fiat", "Cronos", "s/d", "consultar", ""},
		},
	})

	records, err := Read(path, Options{BaseCurrency: "ARS"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Year)
	assert.Nil(t, records[0].Mileage)
	assert.Nil(t, records[0].Price)
}

func TestReadMissingRequiredColumn(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Marca", "Precio"},
			{"Fiat", "9000000"},
		},
	})

	_, err := Read(path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required column "model"`)
}

func TestReadSheetSelection(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Resumen": {{"otra", "cosa"}},
		"Stock": {
			{"Marca", "Modelo"},
			{"Fiat", "Cronos"},
		},
	})

	records, err := Read(path, Options{SheetName: "Stock"})
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = Read(path, Options{SheetName: "NoExiste"})
	assert.Error(t, err)
}
