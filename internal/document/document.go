// Package document defines the intermediate and output data shapes shared by
// the parser and chunking subsystems: the Document a parser emits, the
// Chunk/ImageRecord pair the chunking engine and ingestion pipeline produce,
// and the offset invariants that tie them together.
package document

// Document is the intermediate product of a parser: extracted text plus the
// image assets referenced from it, keyed by the reference string that
// appears inside Content (a URL or a local path).
type Document struct {
	Content string
	Images  map[string]string

	// Chunks is left nil by most parsers. CSV and Spreadsheet parsers
	// populate it directly, since their row-oriented chunking contract
	// cannot be reproduced by re-running the generic splitter over the
	// rendered text; the ingestion pipeline passes a non-nil Chunks
	// through unchanged instead of invoking the chunking engine.
	Chunks []Chunk
}

// Valid reports whether the document carries any usable output. A Document
// with neither text nor images is not a success from a parser's point of
// view, even if no error was returned.
func (d Document) Valid() bool {
	return d.Content != "" || len(d.Images) > 0
}

// Empty returns the zero Document, the FirstSuccess fallback value when
// every child parser fails.
func Empty() Document {
	return Document{}
}

// ImageRecord is the per-chunk structure carrying an image's canonical URL,
// its caption and OCR text (populated asynchronously, possibly left empty
// on collaborator failure), and the offsets of its Markdown reference inside
// the parser's Content.
type ImageRecord struct {
	URL         string
	OriginalURL string
	Caption     string
	OCRText     string
	Start       int
	End         int
}

// Chunk is a bounded-length, positionally-anchored slice of a Document's
// Content, as emitted by the chunking engine.
//
// Start and End are half-open offsets into the parser's Content: Content's
// substring content[Start:End] equals the chunk's Content with any
// prepended header block removed. Seq is the chunk's zero-based position in
// the output list.
type Chunk struct {
	Seq     int
	Content string
	Start   int
	End     int
	Images  []ImageRecord
}

// Covers reports whether offset lies in the chunk's half-open [Start, End)
// range. It is the rule used to attach an ImageRecord to the chunk whose
// range covers the image's first reference offset: a boundary offset
// belongs to the chunk for which it is the start, not the one for which it
// is the end.
func (c Chunk) Covers(offset int) bool {
	return offset >= c.Start && offset < c.End
}
