// Package ingest decodes uploaded documents into plain text for extraction.
//
// Every supported format is flattened the same way: tables become
// pipe-delimited rows and sections are introduced by a marker line
// ("--- PAGE n ---", "=== SHEET: ... ===", "[TABLE]") so the extractor can
// see where figures come from.
package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// TextExtractor turns a stored file into text. Implementations never fail:
// decode problems are reported inside the returned text.
type TextExtractor interface {
	ExtractText(path, fileType string) string
}

// Parser is the default TextExtractor.
type Parser struct {
	// MaxPDFChars stops reading further pages once exceeded (0 = no limit).
	MaxPDFChars int
}

var _ TextExtractor = (*Parser)(nil)

func NewParser() *Parser {
	return &Parser{MaxPDFChars: 200000}
}

// ExtractText routes by file type; unknown types are read as text.
func (p *Parser) ExtractText(path, fileType string) string {
	kind := NormalizeType(fileType)
	if kind == "" {
		kind = NormalizeType(filepath.Ext(path))
	}

	var (
		text string
		err  error
	)
	switch kind {
	case "pdf":
		text, err = readPDF(path, p.MaxPDFChars)
	case "xlsx":
		text, err = readXLSX(path)
	case "xls":
		text, err = readXLS(path)
	case "csv":
		text, err = readCSV(path)
	case "docx", "doc":
		text, err = readDOCX(path)
	case "html", "htm":
		text, err = readHTML(path)
	case "png", "jpg", "jpeg":
		text, err = describeImage(path)
	default:
		text, err = readText(path)
	}
	if err != nil {
		return fmt.Sprintf("[Error parsing %s file: %v]", fileType, err)
	}
	return text
}

// NormalizeType lowercases a type or extension and drops the leading dot.
func NormalizeType(fileType string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(fileType)), ".")
}

// readText reads UTF-8, falling back to Latin-1 for legacy exports.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return decodeBytes(data), nil
}

func decodeBytes(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

func pipeRow(cells []string) string {
	return strings.Join(cells, " | ")
}

func tableBlock(rows []string) string {
	return "[TABLE]\n" + strings.Join(rows, "\n") + "\n[/TABLE]"
}
