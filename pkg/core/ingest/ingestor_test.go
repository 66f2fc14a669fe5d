package ingest

import (
	"archive/zip"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectSheetType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Line item | FY24\nRevenue | 100", SheetIncome},
		{"Total Assets | 10\nTotal Liabilities | 4", SheetBalance},
		{"Net cash from Operating activities | 5", SheetCashFlow},
		{"Headcount | 42", SheetOther},
		{strings.Repeat("x", 600) + "revenue", SheetOther},
	}
	for _, tt := range tests {
		if got := DetectSheetType(tt.text); got != tt.want {
			t.Errorf("DetectSheetType(%.20q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestExtractText_PlainAndLatin1(t *testing.T) {
	p := NewParser()

	path := writeFile(t, "notes.txt", []byte("Revenue 1,000"))
	if got := p.ExtractText(path, "txt"); got != "Revenue 1,000" {
		t.Errorf("txt = %q", got)
	}

	latin := writeFile(t, "legacy.txt", []byte{'C', 'a', 'f', 0xe9})
	if got := p.ExtractText(latin, "TXT"); got != "Café" {
		t.Errorf("latin-1 = %q", got)
	}

	// Unknown types are read as text.
	other := writeFile(t, "data.dat", []byte("raw"))
	if got := p.ExtractText(other, "dat"); got != "raw" {
		t.Errorf("unknown type = %q", got)
	}
}

func TestExtractText_CSV(t *testing.T) {
	data := "Income Statement,,\n,,\nRevenue, 1000 ,FY24\nCOGS,400\n"
	got := NewParser().ExtractText(writeFile(t, "pl.csv", []byte(data)), "csv")
	want := "Income Statement |  | \nRevenue | 1000 | FY24\nCOGS | 400"
	if got != want {
		t.Errorf("csv =\n%q\nwant\n%q", got, want)
	}
}

func TestExtractText_XLSX(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Revenue", 1000}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("BS"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetSheetRow("BS", "A1", &[]interface{}{"Total Assets", 500}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}

	got := NewParser().ExtractText(path, "xlsx")
	for _, want := range []string{
		"=== SHEET: Sheet1 (Detected: Income Statement) ===\nRevenue | 1000",
		"=== SHEET: BS (Detected: Balance Sheet) ===\nTotal Assets | 500",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("xlsx output missing %q:\n%s", want, got)
		}
	}
}

func TestExtractText_DOCX(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Management Report</w:t></w:r></w:p>
<w:p></w:p>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>Revenue</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>1,000</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:p><w:r><w:t xml:space="preserve">Outlook </w:t></w:r><w:r><w:t>positive</w:t></w:r></w:p>
</w:body></w:document>`

	path := filepath.Join(t.TempDir(), "memo.docx")
	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(out)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(body))
	zw.Close()
	out.Close()

	got := NewParser().ExtractText(path, "docx")
	want := "Management Report\n\nOutlook positive\n\n[TABLE]\nRevenue | 1,000\n[/TABLE]"
	if got != want {
		t.Errorf("docx =\n%q\nwant\n%q", got, want)
	}
}

func TestExtractText_HTML(t *testing.T) {
	page := `<html><head><style>p{}</style></head><body>
<h1>Acme Corp</h1>
<p>Fiscal year 2024</p>
<table><tr><th>Item</th><th>Amount</th></tr><tr><td>Revenue</td><td>1,000</td></tr></table>
<script>var x = 1;</script>
</body></html>`
	got := NewParser().ExtractText(writeFile(t, "page.html", []byte(page)), "html")
	want := "Acme Corp\nFiscal year 2024\n\n[TABLE]\nItem | Amount\nRevenue | 1,000\n[/TABLE]"
	if got != want {
		t.Errorf("html =\n%q\nwant\n%q", got, want)
	}
}

func TestExtractText_Image(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got := NewParser().ExtractText(path, "png")
	if !strings.HasPrefix(got, "[IMAGE: scan.png 3x2px.") {
		t.Errorf("image = %q", got)
	}
}

func TestExtractText_ErrorsAreReportedInline(t *testing.T) {
	p := NewParser()
	tests := []string{"pdf", "xlsx", "docx"}
	for _, typ := range tests {
		t.Run(typ, func(t *testing.T) {
			path := writeFile(t, "broken."+typ, []byte("not a real file"))
			got := p.ExtractText(path, typ)
			if !strings.HasPrefix(got, "[Error parsing "+typ+" file: ") {
				t.Errorf("got %q", got)
			}
		})
	}
}
