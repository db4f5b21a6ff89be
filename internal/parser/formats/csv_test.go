package formats_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/parser/formats"
)

// "a,b\n1,2\n3,4\n" renders as two
// precisely-offset chunks against the comma-space delimiter convention.
func TestCSVGoldenExample(t *testing.T) {
	p := formats.NewCSV(zap.NewNop())
	doc, err := p.ParseIntoText(context.Background(), []byte("a,b\n1,2\n3,4\n"))
	if err != nil {
		t.Fatalf("ParseIntoText() error = %v", err)
	}
	if len(doc.Chunks) != 2 {
		t.Fatalf("len(Chunks) = %d, want 2", len(doc.Chunks))
	}

	want := []struct {
		content    string
		start, end int
	}{
		{"a: 1, b: 2\n", 0, 11},
		{"a: 3, b: 4\n", 11, 22},
	}
	for i, w := range want {
		c := doc.Chunks[i]
		if c.Content != w.content || c.Start != w.start || c.End != w.end || c.Seq != i {
			t.Errorf("chunk %d = %+v, want content=%q start=%d end=%d seq=%d", i, c, w.content, w.start, w.end, i)
		}
	}
}

func TestCSVSkipsMalformedRows(t *testing.T) {
	p := formats.NewCSV(zap.NewNop())
	doc, err := p.ParseIntoText(context.Background(), []byte("a,b\n1,2\n3\n5,6\n"))
	if err != nil {
		t.Fatalf("ParseIntoText() error = %v", err)
	}
	if len(doc.Chunks) != 2 {
		t.Fatalf("len(Chunks) = %d, want 2 (malformed row dropped)", len(doc.Chunks))
	}
	if doc.Chunks[0].Content != "a: 1, b: 2\n" || doc.Chunks[1].Content != "a: 5, b: 6\n" {
		t.Errorf("unexpected chunk contents: %+v", doc.Chunks)
	}
}

func TestCSVEmptyInputYieldsEmptyDocument(t *testing.T) {
	p := formats.NewCSV(zap.NewNop())
	doc, err := p.ParseIntoText(context.Background(), []byte(""))
	if err != nil {
		t.Fatalf("ParseIntoText() error = %v", err)
	}
	if doc.Valid() {
		t.Errorf("Document = %+v, want invalid for headerless input", doc)
	}
}
