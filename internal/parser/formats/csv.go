package formats

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/document"
	"github.com/kestrel-data/docreader/internal/parser"
)

// NewCSV builds the CSV parser: rows render as "col: value, col: value\n"
// against the first row as header, one chunk per data row with precise,
// contiguous offsets. It populates Document.Chunks directly rather than
// leaving chunking to the generic splitter, since row-level offsets cannot
// be reconstructed once rows are flattened into one blob of text.
func NewCSV(log *zap.Logger) parser.Parser {
	return parser.Func(func(_ context.Context, content []byte) (document.Document, error) {
		r := csv.NewReader(strings.NewReader(string(content)))
		r.FieldsPerRecord = -1

		header, err := r.Read()
		if err != nil {
			return document.Document{}, nil
		}

		var text strings.Builder
		var chunks []document.Chunk

		for {
			row, err := r.Read()
			if err != nil {
				break
			}
			if len(row) != len(header) {
				log.Warn("csv: skipping malformed row",
					zap.Int("want_fields", len(header)), zap.Int("got_fields", len(row)))
				continue
			}

			line := renderDelimitedRow(header, row)
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

		return document.Document{Content: text.String(), Chunks: chunks}, nil
	})
}

// renderDelimitedRow renders a row as "col: value, col: value\n".
func renderDelimitedRow(header, row []string) string {
	var b strings.Builder
	for i, col := range header {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fmt.Sprintf("%s: %s", col, row[i]))
	}
	b.WriteString("\n")
	return b.String()
}
