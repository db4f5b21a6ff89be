package formats

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/document"
	"github.com/kestrel-data/docreader/internal/parser"
)

// NewSpreadsheet builds the xls/xlsx parser on top of excelize, which owns
// the OOXML container, shared-string table and cell-reference resolution.
// Sheets are iterated in workbook order as excelize reports it; fully empty
// rows are dropped; within a row, empty cells are omitted rather than
// rendered blank. The chunk sequence continues across sheet boundaries,
// exactly as it does across CSV rows.
func NewSpreadsheet(log *zap.Logger) parser.Parser {
	return parser.Func(func(_ context.Context, content []byte) (document.Document, error) {
		f, err := excelize.OpenReader(bytes.NewReader(content))
		if err != nil {
			log.Warn("spreadsheet: not a valid xlsx container", zap.Error(err))
			return document.Document{}, nil
		}
		defer f.Close()

		var text strings.Builder
		var chunks []document.Chunk

		for _, sheet := range f.GetSheetList() {
			rows, err := f.GetRows(sheet)
			if err != nil {
				log.Warn("spreadsheet: reading sheet", zap.String("sheet", sheet), zap.Error(err))
				continue
			}
			chunks = appendSheetChunks(&text, chunks, rows)
		}

		return document.Document{Content: text.String(), Chunks: chunks}, nil
	})
}

func appendSheetChunks(text *strings.Builder, chunks []document.Chunk, rows [][]string) []document.Chunk {
	if len(rows) == 0 {
		return chunks
	}
	header := rows[0]
	for _, row := range rows[1:] {
		if rowIsEmpty(row) {
			continue
		}
		line := renderSparseRow(header, row)
		start := utf8.RuneCountInString(text.String())
		text.WriteString(line)
		end := utf8.RuneCountInString(text.String())
		chunks = append(chunks, document.Chunk{
			Seq:     len(chunks),
			Content: line,
			Start:   start,
			End:     end,
		})
	}
	return chunks
}

func rowIsEmpty(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// renderSparseRow mirrors the CSV row rendering, but a cell whose value is
// empty or missing is omitted from the line entirely instead of rendering
// "col: ".
func renderSparseRow(header, row []string) string {
	var b strings.Builder
	first := true
	for i, col := range header {
		var v string
		if i < len(row) {
			v = row[i]
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(fmt.Sprintf("%s: %s", col, v))
	}
	b.WriteString("\n")
	return b.String()
}
