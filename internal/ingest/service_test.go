package ingest

import (
	"testing"

	"github.com/kestrel-data/docreader/internal/document"
)

// attachImages assigns each image to the chunk covering its first
// reference offset; a boundary tie resolves to the later chunk per the
// half-open [Start, End) rule on document.Chunk.Covers.
func TestAttachImagesAssignsToCoveringChunk(t *testing.T) {
	content := "intro ![a](u1) middle ![b](u2) tail"
	doc := document.Document{
		Content: content,
		Images: map[string]string{
			"u1": "base64-a",
			"u2": "base64-b",
		},
	}
	chunks := []document.Chunk{
		{Seq: 0, Start: 0, End: 20},
		{Seq: 1, Start: 20, End: len([]rune(content))},
	}

	got := attachImages(doc, chunks)

	if len(got[0].Images) != 1 || got[0].Images[0].URL != "u1" {
		t.Errorf("chunk 0 images = %+v, want exactly u1", got[0].Images)
	}
	if len(got[1].Images) != 1 || got[1].Images[0].URL != "u2" {
		t.Errorf("chunk 1 images = %+v, want exactly u2", got[1].Images)
	}
}

func TestAttachImagesSkipsUnresolvedReferences(t *testing.T) {
	content := "see ![x](https://pre-existing.example/pic.png) here"
	doc := document.Document{Content: content, Images: map[string]string{}}
	chunks := []document.Chunk{{Seq: 0, Start: 0, End: len([]rune(content))}}

	got := attachImages(doc, chunks)
	if len(got[0].Images) != 0 {
		t.Errorf("Images = %+v, want none for a reference absent from the image map", got[0].Images)
	}
}

func TestAttachImagesDeduplicatesRepeatedReference(t *testing.T) {
	content := "![a](u1) and again ![a](u1)"
	doc := document.Document{Content: content, Images: map[string]string{"u1": "payload"}}
	chunks := []document.Chunk{{Seq: 0, Start: 0, End: len([]rune(content))}}

	got := attachImages(doc, chunks)
	if len(got[0].Images) != 1 {
		t.Errorf("Images = %+v, want the repeated reference attached once (first occurrence)", got[0].Images)
	}
}

func TestToChunkResultsPreservesOrderAndFields(t *testing.T) {
	chunks := []document.Chunk{
		{Seq: 0, Content: "first", Start: 0, End: 5, Images: []document.ImageRecord{
			{URL: "u1", OriginalURL: "u1", Caption: "cap", OCRText: "ocr", Start: 1, End: 2},
		}},
		{Seq: 1, Content: "second", Start: 5, End: 11},
	}

	got := toChunkResults(chunks)
	if len(got) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(got))
	}
	if got[0].Content != "first" || got[0].Seq != 0 || got[0].Start != 0 || got[0].End != 5 {
		t.Errorf("result[0] = %+v, unexpected", got[0])
	}
	if len(got[0].Images) != 1 || got[0].Images[0].Caption != "cap" {
		t.Errorf("result[0].Images = %+v, want propagated image record", got[0].Images)
	}
	if len(got[1].Images) != 0 {
		t.Errorf("result[1].Images = %+v, want none", got[1].Images)
	}
}
