// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/northbound/knowledgehive/internal/domain"
)

// ExcelExtractor renders spreadsheet rows as "Row N: Header: Value, ..."
// text, a markdownification strategy grounded in the teacher's
// parser.parseExcel. Supplements spec.md's explicit extractor list.
type ExcelExtractor struct{}

func (ExcelExtractor) SupportedKinds() []string {
	return []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}
}

func (ExcelExtractor) MaxBytes() int64 { return 100 << 20 }

func (ExcelExtractor) ExtractText(path string, opts Options) (ExtractedContent, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrCorruptedFile, err)
	}
	defer f.Close()
	return renderWorkbook(f)
}

func (ExcelExtractor) ExtractTextFromBytes(data []byte, kind string, opts Options) (ExtractedContent, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return ExtractedContent{}, fmt.Errorf("%w: %v", domain.ErrCorruptedFile, err)
	}
	defer f.Close()
	return renderWorkbook(f)
}

func renderWorkbook(f *excelize.File) (ExtractedContent, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ExtractedContent{}, fmt.Errorf("%w: no sheets found", domain.ErrExtractionFailed)
	}

	var builder strings.Builder
	for sheetIdx, sheetName := range sheets {
		if sheetIdx > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))

		rows, err := f.GetRows(sheetName)
		if err != nil || len(rows) == 0 {
			continue
		}

		headers := rows[0]
		for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
			row := rows[rowIdx]
			var parts []string
			for colIdx, header := range headers {
				if colIdx >= len(row) {
					continue
				}
				value := strings.TrimSpace(row[colIdx])
				if value == "" {
					continue
				}
				name := strings.TrimSpace(header)
				if name == "" {
					name = fmt.Sprintf("Column %d", colIdx+1)
				}
				parts = append(parts, fmt.Sprintf("%s: %s", name, value))
			}
			if len(parts) > 0 {
				builder.WriteString(fmt.Sprintf("Row %d: %s\n", rowIdx+1, strings.Join(parts, ", ")))
			}
		}
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return ExtractedContent{}, fmt.Errorf("%w: no content extracted from workbook", domain.ErrExtractionFailed)
	}
	return ExtractedContent{Text: text, Metadata: map[string]string{}}, nil
}
