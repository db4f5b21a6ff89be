package formats

import (
	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/clients/doc2x"
	"github.com/kestrel-data/docreader/internal/clients/markitdown"
	"github.com/kestrel-data/docreader/internal/markdown"
	"github.com/kestrel-data/docreader/internal/parser"
)

// NewPDF builds the PDF parser: FirstSuccess(MinerU, Markitdown), each
// extractor fronted by the MD5-keyed response cache (cache may be nil,
// disabling the optimization without changing behavior), images uploaded
// and path-rewritten, then run through the Markdown pipeline.
func NewPDF(log *zap.Logger, up markdown.Uploader, mineru doc2x.DocumentParser, markitdownClient markitdown.Converter, cache responseCache, fileName string) parser.Parser {
	chain := parser.FirstSuccess(log, "pdf",
		newExtractorParser(log, withResponseCache(newMineruExtractor(mineru), cache), up),
		newExtractorParser(log, withResponseCache(newMarkitdownExtractor(markitdownClient, fileName), cache), up),
	)
	return parser.Pipeline(chain, NewMarkdown(log, up))
}
