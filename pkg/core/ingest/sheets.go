package ingest

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Sheet kinds reported in the sheet header line.
const (
	SheetIncome   = "Income Statement"
	SheetBalance  = "Balance Sheet"
	SheetCashFlow = "Cash Flow Statement"
	SheetOther    = "Financial Data"
)

const sheetSampleChars = 500

var sheetKeywords = []struct {
	kind     string
	keywords []string
}{
	{SheetIncome, []string{"revenue", "sales", "net income", "gross profit"}},
	{SheetBalance, []string{"assets", "liabilities", "equity"}},
	{SheetCashFlow, []string{"cash flow", "operating", "investing"}},
}

// DetectSheetType guesses a sheet's statement kind from its first rows.
func DetectSheetType(text string) string {
	sample := text
	if len(sample) > sheetSampleChars {
		sample = sample[:sheetSampleChars]
	}
	sample = strings.ToLower(sample)
	for _, k := range sheetKeywords {
		for _, kw := range k.keywords {
			if strings.Contains(sample, kw) {
				return k.kind
			}
		}
	}
	return SheetOther
}

func sheetBlock(name string, rows []string) string {
	text := strings.Join(rows, "\n")
	return fmt.Sprintf("=== SHEET: %s (Detected: %s) ===\n%s", name, DetectSheetType(text), text)
}

func readXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sheets []string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %w", name, err)
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			lines = append(lines, pipeRow(row))
		}
		sheets = append(sheets, sheetBlock(name, lines))
	}
	return strings.Join(sheets, "\n\n"), nil
}

func readXLS(path string) (string, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return "", err
	}

	var sheets []string
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		var lines []string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				continue
			}
			var cells []string
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			lines = append(lines, pipeRow(cells))
		}
		sheets = append(sheets, sheetBlock(sheet.Name, lines))
	}
	return strings.Join(sheets, "\n\n"), nil
}

// readCSV keeps rows with at least one non-blank cell. Ragged rows and stray
// quotes are tolerated; anything the reader still rejects is read as text.
func readCSV(path string) (string, error) {
	content, err := readText(path)
	if err != nil {
		return "", err
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return content, nil
	}

	var lines []string
	for _, rec := range records {
		blank := true
		cells := make([]string, len(rec))
		for i, cell := range rec {
			cells[i] = strings.TrimSpace(cell)
			if cells[i] != "" {
				blank = false
			}
		}
		if !blank {
			lines = append(lines, pipeRow(cells))
		}
	}
	return strings.Join(lines, "\n"), nil
}
