package document_test

import (
	"testing"

	"github.com/kestrel-data/docreader/internal/document"
)

func TestDocumentValid(t *testing.T) {
	cases := []struct {
		name string
		doc  document.Document
		want bool
	}{
		{"empty", document.Document{}, false},
		{"has content", document.Document{Content: "x"}, true},
		{"has images only", document.Document{Images: map[string]string{"u": "b64"}}, true},
	}
	for _, c := range cases {
		if got := c.doc.Valid(); got != c.want {
			t.Errorf("%s: Valid() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestEmptyIsInvalid(t *testing.T) {
	if document.Empty().Valid() {
		t.Error("Empty().Valid() = true, want false")
	}
}

// Covers the half-open [Start, End) rule used to attach an image to the
// chunk whose range contains its first reference offset: a boundary offset
// belongs to the chunk it starts, not the one it ends.
func TestChunkCoversHalfOpenRange(t *testing.T) {
	c := document.Chunk{Start: 10, End: 20}
	cases := []struct {
		offset int
		want   bool
	}{
		{9, false},
		{10, true},
		{15, true},
		{19, true},
		{20, false},
	}
	for _, tc := range cases {
		if got := c.Covers(tc.offset); got != tc.want {
			t.Errorf("Covers(%d) = %v, want %v", tc.offset, got, tc.want)
		}
	}
}
