package formats

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kestrel-data/docreader/internal/document"
	"github.com/kestrel-data/docreader/internal/markdown"
	"github.com/kestrel-data/docreader/internal/parser"
)

// NewImage builds the Image parser for a single request: it uploads the
// original bytes through the object store and emits a one-line Markdown
// document referencing the uploaded URL. The base64 payload is kept in
// the image map under that URL so OCR/VLM post-processing can run without
// re-fetching the bytes.
func NewImage(up markdown.Uploader, fileName string) parser.Parser {
	return parser.Func(func(ctx context.Context, content []byte) (document.Document, error) {
		ext := strings.TrimPrefix(filepath.Ext(fileName), ".")
		url, err := up.UploadBytes(ctx, ext, content)
		if err != nil {
			return document.Document{}, nil
		}

		alt := fileName
		if alt == "" {
			alt = "image"
		}

		return document.Document{
			Content: fmt.Sprintf("![%s](%s)", alt, url),
			Images: map[string]string{
				url: base64.StdEncoding.EncodeToString(content),
			},
		}, nil
	})
}
