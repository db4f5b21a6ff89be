package formats

import (
	"context"

	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/document"
	"github.com/kestrel-data/docreader/internal/markdown"
	"github.com/kestrel-data/docreader/internal/parser"
)

// NewMarkdown builds the Markdown parser: table formatting, then base64
// image lifting through the object-store collaborator.
func NewMarkdown(log *zap.Logger, up markdown.Uploader) parser.Parser {
	formatter := markdown.NewTableFormatter()

	tableStage := parser.Func(func(_ context.Context, content []byte) (document.Document, error) {
		return document.Document{Content: formatter.Format(string(content))}, nil
	})

	liftStage := parser.Func(func(ctx context.Context, content []byte) (document.Document, error) {
		rewritten, images, err := markdown.LiftBase64Images(ctx, string(content), up)
		if err != nil {
			// StorageError: logged here and swallowed, not propagated —
			// upload failures leave the affected node unchanged rather
			// than failing the whole parse.
			log.Warn("markdown: image upload failed, leaving node unchanged", zap.Error(err))
		}
		return document.Document{Content: rewritten, Images: images}, nil
	})

	return parser.Pipeline(tableStage, liftStage)
}
