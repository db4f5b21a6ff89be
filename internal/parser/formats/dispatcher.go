package formats

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/clients/doc2x"
	"github.com/kestrel-data/docreader/internal/clients/markitdown"
	"github.com/kestrel-data/docreader/internal/markdown"
	"github.com/kestrel-data/docreader/internal/parser"
)

// UnsupportedKind is returned when the dispatcher has no parser registered
// for a file kind. It is the one taxonomy entry the dispatcher itself can
// surface; every other category is a parser- or collaborator-local
// concern handled inside the chosen parser.
type UnsupportedKind struct {
	Kind string
}

func (e *UnsupportedKind) Error() string {
	return fmt.Sprintf("formats: unsupported file kind %q", e.Kind)
}

// Dispatcher is the only component that inspects file kind; once a parser
// is selected, parsing proceeds kind-agnostically through the Parser
// interface.
type Dispatcher struct {
	log        *zap.Logger
	storage    markdown.Uploader
	mineru     doc2x.DocumentParser
	markitdown markitdown.Converter
	cache      responseCache
}

// NewDispatcher wires the collaborators every format-specific parser may
// need to construct itself for a single request. cache may be nil, which
// disables the PDF parser's response-cache optimization without changing
// its behavior.
func NewDispatcher(log *zap.Logger, storage markdown.Uploader, mineru doc2x.DocumentParser, markitdownClient markitdown.Converter, cache responseCache) *Dispatcher {
	return &Dispatcher{log: log, storage: storage, mineru: mineru, markitdown: markitdownClient, cache: cache}
}

// Kind inspects fileType, falling back to the lower-cased extension of
// fileName (the text after its last '.') when fileType is empty.
func Kind(fileType, fileName string) string {
	if fileType != "" {
		return strings.ToLower(fileType)
	}
	if i := strings.LastIndex(fileName, "."); i >= 0 && i+1 < len(fileName) {
		return strings.ToLower(fileName[i+1:])
	}
	return ""
}

// Dispatch builds the Parser for kind. fileName is used by parsers that
// need it as context (Image's alt text, Word/PDF's extractor payload
// name); it may be empty for URL requests.
func (d *Dispatcher) Dispatch(kind, fileName string) (parser.Parser, error) {
	switch kind {
	case "txt":
		return NewText(), nil
	case "md", "markdown":
		return NewMarkdown(d.log, d.storage), nil
	case "doc", "docx":
		return NewWord(d.log, d.storage, d.markitdown, fileName), nil
	case "pdf":
		return NewPDF(d.log, d.storage, d.mineru, d.markitdown, d.cache, fileName), nil
	case "csv":
		return NewCSV(d.log), nil
	case "xls", "xlsx":
		return NewSpreadsheet(d.log), nil
	case "jpg", "jpeg", "png", "gif", "webp", "bmp":
		return NewImage(d.storage, fileName), nil
	case "url":
		return NewWeb(d.log, NewMarkdown(d.log, d.storage)), nil
	default:
		return nil, &UnsupportedKind{Kind: kind}
	}
}
