package ingest

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// readDOCX returns body paragraphs followed by each top-level table as a
// [TABLE] block. Paragraphs inside tables only appear in their cells.
func readDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("not a docx archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return walkDocument(rc)
	}
	return "", errors.New("missing " + docxBody)
}

func walkDocument(r io.Reader) (string, error) {
	var (
		parts      []string
		tables     []string
		depth      int // table nesting
		inText     bool
		para, cell strings.Builder
		row, rows  []string
		cellParas  int
	)

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				depth++
				if depth == 1 {
					rows = nil
				}
			case "tr":
				if depth == 1 {
					row = nil
				}
			case "tc":
				if depth == 1 {
					cell.Reset()
					cellParas = 0
				}
			case "p":
				if depth == 0 {
					para.Reset()
				} else {
					if cellParas > 0 {
						cell.WriteString("\n")
					}
					cellParas++
				}
			case "t":
				inText = true
			case "tab":
				current(depth, &para, &cell).WriteString("\t")
			}
		case xml.CharData:
			if inText {
				current(depth, &para, &cell).Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth == 0 && strings.TrimSpace(para.String()) != "" {
					parts = append(parts, para.String())
				}
			case "tc":
				if depth == 1 {
					row = append(row, cell.String())
				}
			case "tr":
				if depth == 1 {
					rows = append(rows, pipeRow(row))
				}
			case "tbl":
				depth--
				if depth == 0 {
					tables = append(tables, tableBlock(rows))
				}
			}
		}
	}
	return strings.Join(append(parts, tables...), "\n\n"), nil
}

func current(depth int, para, cell *strings.Builder) *strings.Builder {
	if depth > 0 {
		return cell
	}
	return para
}
