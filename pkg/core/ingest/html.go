package ingest

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// readHTML flattens a saved web page or HTML export: visible text lines
// first, then each table as a [TABLE] block.
func readHTML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var tables []string
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if table.ParentsFiltered("table").Length() > 0 {
			return
		}
		var rows []string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
			})
			if len(cells) > 0 {
				rows = append(rows, pipeRow(cells))
			}
		})
		if len(rows) > 0 {
			tables = append(tables, tableBlock(rows))
		}
	})
	doc.Find("table").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}

	parts := tables
	if len(lines) > 0 {
		parts = append([]string{strings.Join(lines, "\n")}, tables...)
	}
	return strings.Join(parts, "\n\n"), nil
}

// describeImage has no text layer to read; it records the image so the
// document is not silently empty.
func describeImage(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("[IMAGE: %s %dx%dpx. No text layer available for extraction.]", filepath.Base(path), cfg.Width, cfg.Height), nil
}
