// Package markdown provides the Markdown-specific utilities used by the
// Markdown parser pipeline: table reformatting and base64 image lifting.
package markdown

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	gparser "github.com/yuin/goldmark/parser"
	gtext "github.com/yuin/goldmark/text"
)

// TableFormatter standardizes the spacing and alignment markers of every
// Markdown table in a document: consistent " | " padding, normalized
// ":---", "---:" and ":---:" alignment cells, indentation preserved.
//
// It parses content with goldmark's table extension first and only
// reformats the byte spans goldmark's AST actually resolved as GFM tables:
// the regexes below are deliberately loose (a stray pipe-delimited sentence
// that never became a real table would also match them), so scoping them to
// AST-confirmed spans is what keeps Format from touching text that only
// looks like a table.
type TableFormatter struct {
	linePattern  *regexp.Regexp
	alignPattern *regexp.Regexp
	md           goldmark.Markdown
}

// NewTableFormatter builds a TableFormatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		linePattern:  regexp.MustCompile(`(?m)^([\t ]*)\|[\t ]*[^|\r\n]*(?:[\t ]*\|[^|\r\n]*)*\|[\t ]*$`),
		alignPattern: regexp.MustCompile(`(?m)^([\t ]*)\|[\t ]*[:-]+(?:[\t ]*\|[\t ]*[:-]+)*[\t ]*\|[\t ]*$`),
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
			goldmark.WithParserOptions(gparser.WithAutoHeadingID()),
		),
	}
}

// Format rewrites every table row and alignment row inside a goldmark-
// confirmed table span. Regular rows are normalized first; alignment rows
// are processed afterward so the alignment pattern is not confused by a
// formatted regular row. Content outside a table span is left untouched.
func (f *TableFormatter) Format(content string) string {
	spans := f.tableSpans(content)
	if len(spans) == 0 {
		return content
	}

	var b strings.Builder
	pos := 0
	for _, span := range spans {
		b.WriteString(content[pos:span.start])
		b.WriteString(f.formatSpan(content[span.start:span.end]))
		pos = span.end
	}
	b.WriteString(content[pos:])
	return b.String()
}

func (f *TableFormatter) formatSpan(table string) string {
	table = f.linePattern.ReplaceAllStringFunc(table, f.processLine)
	table = f.alignPattern.ReplaceAllStringFunc(table, f.processAlign)
	return table
}

type tableSpan struct{ start, end int }

// tableSpans parses content with goldmark's table extension and returns
// the byte range of every table block it resolved, in document order. The
// range runs from the first cell segment of the header row to the last cell
// segment of the final row, widened out to full physical lines — cell
// segments exclude the pipes and any leading indentation, and widening to
// the true line boundaries keeps both inside the span formatSpan operates on.
func (f *TableFormatter) tableSpans(content string) []tableSpan {
	source := []byte(content)
	doc := f.md.Parser().Parse(gtext.NewReader(source))

	var spans []tableSpan
	_ = gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		table, ok := n.(*east.Table)
		if !ok {
			return gast.WalkContinue, nil
		}
		start, stop := -1, -1
		for row := table.FirstChild(); row != nil; row = row.NextSibling() {
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				if lines := cell.Lines(); lines.Len() > 0 {
					if start < 0 {
						start = lines.At(0).Start
					}
					stop = lines.At(lines.Len() - 1).Stop
				}
			}
		}
		if start >= 0 {
			spans = append(spans, tableSpan{
				start: lineStart(content, start),
				end:   lineEnd(content, stop),
			})
		}
		return gast.WalkSkipChildren, nil
	})
	return spans
}

// lineStart returns the byte offset of the start of the physical line
// containing pos.
func lineStart(s string, pos int) int {
	if i := strings.LastIndexByte(s[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

// lineEnd returns the byte offset of the end of the physical line
// containing pos, excluding its trailing newline.
func lineEnd(s string, pos int) int {
	if i := strings.IndexByte(s[pos:], '\n'); i >= 0 {
		return pos + i
	}
	return len(s)
}

func (f *TableFormatter) processLine(row string) string {
	prefix, cols := splitCells(f.linePattern, row)
	return prefix + "| " + strings.Join(cols, " | ") + " |"
}

func (f *TableFormatter) processAlign(row string) string {
	prefix, cols := splitCells(f.alignPattern, row)
	out := make([]string, len(cols))
	for i, col := range cols {
		left := ""
		if strings.HasPrefix(col, ":") {
			left = ":"
		}
		right := ""
		if strings.HasSuffix(col, ":") {
			right = ":"
		}
		out[i] = left + "---" + right
	}
	return prefix + "| " + strings.Join(out, " | ") + " |"
}

// splitCells splits row on "|" and trims each interior cell. The first and
// last elements of the split are the indentation before the opening pipe
// and whatever trailing whitespace follows the closing pipe, not cells, and
// are dropped; everything between is a cell, even when empty — a table row
// with a blank cell must keep its column count, not collapse it.
func splitCells(pattern *regexp.Regexp, row string) (prefix string, cols []string) {
	m := pattern.FindStringSubmatch(row)
	if len(m) > 1 {
		prefix = m[1]
	}
	parts := strings.Split(row, "|")
	if len(parts) < 2 {
		return prefix, nil
	}
	for _, cell := range parts[1 : len(parts)-1] {
		cols = append(cols, strings.TrimSpace(cell))
	}
	return prefix, cols
}
