package formats

import (
	"context"
	"encoding/base64"

	"github.com/kestrel-data/docreader/internal/clients/doc2x"
	"github.com/kestrel-data/docreader/internal/clients/markitdown"
)

// DocumentExtractor is the narrow contract the Word and PDF FirstSuccess
// chains compose over: turn raw document bytes into a Markdown string plus
// any locally-referenced images it carries, keyed by the path the Markdown
// content references them by.
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte) (markdown string, images map[string][]byte, err error)
}

// mineruExtractor adapts the Doc2X/MinerU client (upload, poll, assemble
// per-page Markdown) to the DocumentExtractor contract.
type mineruExtractor struct {
	client doc2x.DocumentParser
}

func newMineruExtractor(client doc2x.DocumentParser) DocumentExtractor {
	return &mineruExtractor{client: client}
}

func (m *mineruExtractor) Extract(ctx context.Context, data []byte) (string, map[string][]byte, error) {
	upload, err := m.client.UploadPDF(ctx, data)
	if err != nil {
		return "", nil, err
	}

	status, err := m.client.WaitForParsing(ctx, upload.Data.UID)
	if err != nil {
		return "", nil, err
	}
	if status.Data == nil || status.Data.Result == nil {
		return "", nil, nil
	}

	var md string
	for _, page := range status.Data.Result.Pages {
		if md != "" {
			md += "\n\n"
		}
		md += page.Md
	}
	return md, nil, nil
}

// markitdownExtractor adapts the Markitdown client's synchronous convert
// call to the DocumentExtractor contract, decoding its base64-carried
// image payloads back to raw bytes.
type markitdownExtractor struct {
	client markitdown.Converter
	name   string
}

func newMarkitdownExtractor(client markitdown.Converter, fileName string) DocumentExtractor {
	return &markitdownExtractor{client: client, name: fileName}
}

func (m *markitdownExtractor) Extract(ctx context.Context, data []byte) (string, map[string][]byte, error) {
	resp, err := m.client.Convert(ctx, m.name, data)
	if err != nil {
		return "", nil, err
	}

	images := make(map[string][]byte, len(resp.Images))
	for path, encoded := range resp.Images {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			continue
		}
		images[path] = raw
	}
	return resp.Markdown, images, nil
}
