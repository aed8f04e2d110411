package behavior

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	docx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// DocumentText extracts plain text from an uploaded requirements document.
// Spreadsheets are flattened row by row with one blank line between sheets,
// Word paragraphs are separated by blank lines, and markdown and plain text
// are returned as-is.
func DocumentText(filename string, data []byte) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".csv":
		return csvText(data)
	case ".xlsx":
		return workbookText(data)
	case ".pdf":
		return pdfText(data)
	case ".docx":
		return wordText(data)
	case ".xls", ".doc":
		return "", fmt.Errorf("legacy %s documents are not supported, save as %sx", ext, ext)
	case ".txt", ".md", ".markdown", "":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("document %s is not valid UTF-8 text", filename)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("unsupported document type: %s", path.Ext(filename))
}

func csvText(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("reading csv: %w", err)
	}
	return joinRows(records), nil
}

func joinRows(rows [][]string) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, ","))
	}
	return strings.Join(lines, "\n")
}

func workbookText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("reading workbook: %w", err)
	}
	defer f.Close()

	var sheets []string
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return "", fmt.Errorf("reading sheet %s: %w", name, err)
		}
		if text := joinRows(rows); text != "" {
			sheets = append(sheets, text)
		}
	}
	return strings.Join(sheets, "\n\n"), nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	return strings.TrimSpace(string(text)), nil
}

func wordText(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("reading docx: %w", err)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		var text string
		switch v := item.(type) {
		case *docx.Paragraph:
			text = v.String()
		case *docx.Table:
			text = v.String()
		}
		if text = strings.TrimSpace(text); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return strings.Join(paragraphs, "\n\n"), nil
}
