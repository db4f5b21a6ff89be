package formats

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/clients/markitdown"
	"github.com/kestrel-data/docreader/internal/document"
	"github.com/kestrel-data/docreader/internal/markdown"
	"github.com/kestrel-data/docreader/internal/parser"
)

// NewWord builds the Word parser: FirstSuccess(Markitdown, DocxXML), its
// output images uploaded and path-rewritten, then run through the
// Markdown pipeline.
func NewWord(log *zap.Logger, up markdown.Uploader, markitdownClient markitdown.Converter, fileName string) parser.Parser {
	chain := parser.FirstSuccess(log, "word",
		newExtractorParser(log, newMarkitdownExtractor(markitdownClient, fileName), up),
		newExtractorParser(log, newDocxExtractor(), up),
	)
	return parser.Pipeline(chain, NewMarkdown(log, up))
}

// newExtractorParser wraps a DocumentExtractor as a Parser: it extracts
// Markdown/text plus local images, uploads every image through the object
// store, and rewrites the content's local image paths to the uploaded
// URLs before handing off.
func newExtractorParser(log *zap.Logger, ex DocumentExtractor, up markdown.Uploader) parser.Parser {
	return parser.Func(func(ctx context.Context, content []byte) (document.Document, error) {
		md, images, err := ex.Extract(ctx, content)
		if err != nil {
			return document.Document{}, err
		}
		if md == "" && len(images) == 0 {
			return document.Document{}, nil
		}

		mapping := make(map[string]string, len(images))
		for path, data := range images {
			ext := strings.TrimPrefix(imageExt(path), ".")
			url, err := up.UploadBytes(ctx, ext, data)
			if err != nil {
				log.Warn("word/pdf: image upload failed, leaving path unchanged", zap.String("path", path), zap.Error(err))
				continue
			}
			mapping[path] = url
		}

		md = markdown.ReplacePaths(md, mapping)
		return document.Document{Content: md}, nil
	})
}

func imageExt(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i:]
	}
	return ""
}

// docxExtractor is the local fallback DocumentExtractor: it delegates the
// OOXML container handling to nguyenthenguyen/docx, then unmarshals the
// word/document.xml body it returns with the same paragraph/run shape
// Word actually writes.
type docxExtractor struct{}

func newDocxExtractor() DocumentExtractor {
	return docxExtractor{}
}

type wordBody struct {
	Paragraphs []wordParagraph `xml:"body>p"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Text string `xml:"t"`
}

func (docxExtractor) Extract(_ context.Context, data []byte) (string, map[string][]byte, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, err
	}
	defer r.Close()

	raw := r.Editable().GetContent()
	if raw == "" {
		return "", nil, nil
	}

	var body wordBody
	if err := xml.Unmarshal([]byte(raw), &body); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	for _, p := range body.Paragraphs {
		for _, r := range p.Runs {
			b.WriteString(r.Text)
		}
		b.WriteString("\n")
	}
	return b.String(), nil, nil
}
