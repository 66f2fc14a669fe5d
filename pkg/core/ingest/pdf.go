package ingest

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// readPDF emits one "--- PAGE n ---" block per page.
// Recovers from panics raised by corrupt streams.
func readPDF(path string, maxChars int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("panic during PDF extraction: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var (
		pages []string
		size  int
	)
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		pageText := ""
		if !page.V.IsNull() {
			if t, err := page.GetPlainText(nil); err == nil {
				pageText = t
			}
		}
		block := fmt.Sprintf("--- PAGE %d ---\n%s\n", i, strings.TrimRight(pageText, "\n"))
		pages = append(pages, block)
		size += len(block)
		if maxChars > 0 && size > maxChars {
			break
		}
	}
	return strings.Join(pages, "\n\n"), nil
}
