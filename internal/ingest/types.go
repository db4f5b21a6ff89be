// Package ingest implements the outer parse(bytes) -> result orchestration:
// dispatch to a format parser, run the chunking engine (or pass through
// pre-built chunks), attach extracted images to the chunks that cover
// their first reference offset, and — when multimodal processing is
// enabled — caption and OCR each image concurrently.
package ingest

import (
	"github.com/kestrel-data/docreader/internal/config"
)

// FileRequest is a file-upload request: a name, an
// optional explicit kind (inferred from the name's extension otherwise),
// and the raw bytes.
type FileRequest struct {
	FileName    string
	FileType    string
	FileContent []byte
	ReadConfig  ReadConfig
	RequestID   string
}

// URLRequest is a URL-ingestion request.
type URLRequest struct {
	URL        string
	Title      string
	ReadConfig ReadConfig
	RequestID  string
}

// ReadConfig mirrors read_config: the per-request overrides for chunking
// behavior and collaborator selection. Zero-valued fields fall back to the
// service's defaults rather than to the chunking package's own defaults,
// so a request can override just one field.
type ReadConfig struct {
	ChunkSize        int
	ChunkOverlap     int
	Separators       []string
	EnableMultimodal bool
	Storage          config.StorageConfig
	VLM              config.VLMConfig
}

// ImageResult is one image attached to a ChunkResult.
type ImageResult struct {
	URL         string
	OriginalURL string
	Caption     string
	OCRText     string
	Start       int
	End         int
}

// ChunkResult is one chunk of the response envelope.
type ChunkResult struct {
	Content string
	Seq     int
	Start   int
	End     int
	Images  []ImageResult
}

// Result is the full response envelope. Error is set only for the
// taxonomy entries that are allowed to surface (UnsupportedKind,
// ConfigError); every other failure mode is absorbed upstream of this
// struct's construction.
type Result struct {
	Chunks []ChunkResult
	Error  string
}
