package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"regexp"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/chunking"
	"github.com/kestrel-data/docreader/internal/config"
	"github.com/kestrel-data/docreader/internal/document"
	"github.com/kestrel-data/docreader/internal/ocr"
	"github.com/kestrel-data/docreader/internal/parser/formats"
	"github.com/kestrel-data/docreader/internal/vlm"
)

// imageRefPattern locates every Markdown image reference in a parser's
// content, capturing the reference string the Document.Images map is keyed
// by. Shared with package markdown's own pattern in spirit, kept local
// here since this one needs byte offsets rather than a rewritten string.
var imageRefPattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)

// defaultImageConcurrency bounds per-request OCR/VLM fan-out.
const defaultImageConcurrency = 5

// Service is the outer ingestion orchestrator: one instance is constructed
// at application start (via fx) and shared across all requests.
type Service struct {
	log        *zap.Logger
	dispatcher *formats.Dispatcher
	defaults   config.ChunkingConfig

	ocr     ocr.OCR
	vlmImpl vlm.VLM

	imageConcurrency int
}

// NewService wires a Service from its collaborators. defaults supplies the
// chunking configuration a request's ReadConfig fields fall back to when
// left zero-valued. The object store is not held here directly: it is
// already wired into dispatcher's format parsers, which are the only
// things that upload image/document bytes.
func NewService(log *zap.Logger, dispatcher *formats.Dispatcher, defaults config.ChunkingConfig, ocrEngine ocr.OCR, vlmClient vlm.VLM) *Service {
	return &Service{
		log:              log,
		dispatcher:       dispatcher,
		defaults:         defaults,
		ocr:              ocrEngine,
		vlmImpl:          vlmClient,
		imageConcurrency: defaultImageConcurrency,
	}
}

// ParseFile runs the full pipeline for a file-upload request.
func (s *Service) ParseFile(ctx context.Context, req FileRequest) (Result, error) {
	kind := formats.Kind(req.FileType, req.FileName)
	return s.parse(ctx, kind, req.FileName, req.FileContent, req.ReadConfig)
}

// ParseURL runs the full pipeline for a URL-ingestion request. The URL
// itself is the "content" the Web parser receives.
func (s *Service) ParseURL(ctx context.Context, req URLRequest) (Result, error) {
	return s.parse(ctx, "url", req.Title, []byte(req.URL), req.ReadConfig)
}

func (s *Service) parse(ctx context.Context, kind, fileName string, content []byte, rc ReadConfig) (Result, error) {
	splitCfg := s.resolveChunkingConfig(rc)
	if err := splitCfg.Validate(); err != nil {
		return Result{}, err
	}

	p, err := s.dispatcher.Dispatch(kind, fileName)
	if err != nil {
		var unsupported *formats.UnsupportedKind
		if errors.As(err, &unsupported) {
			return Result{Error: err.Error()}, err
		}
		return Result{}, err
	}

	doc, err := p.ParseIntoText(ctx, content)
	if err != nil {
		return Result{}, err
	}

	chunks, err := s.buildChunks(doc, splitCfg)
	if err != nil {
		return Result{}, err
	}

	chunks = attachImages(doc, chunks)

	if rc.EnableMultimodal {
		s.populateImageText(ctx, doc.Images, chunks)
	}

	return Result{Chunks: toChunkResults(chunks)}, nil
}

func (s *Service) resolveChunkingConfig(rc ReadConfig) config.ChunkingConfig {
	cfg := s.defaults
	if rc.ChunkSize > 0 {
		cfg.ChunkSize = rc.ChunkSize
	}
	if rc.ChunkOverlap > 0 {
		cfg.ChunkOverlap = rc.ChunkOverlap
	}
	if len(rc.Separators) > 0 {
		cfg.Separators = rc.Separators
	}
	cfg.EnableMultimodal = rc.EnableMultimodal
	return cfg
}

// buildChunks runs the chunking engine over doc.Content, unless the parser
// already populated Document.Chunks directly (CSV/Spreadsheet), in which
// case that list passes through unchanged.
func (s *Service) buildChunks(doc document.Document, cfg config.ChunkingConfig) ([]document.Chunk, error) {
	if doc.Chunks != nil {
		return doc.Chunks, nil
	}

	splitter, err := chunking.New(chunking.Config{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		Separators:   cfg.Separators,
	})
	if err != nil {
		return nil, err
	}

	fragments := splitter.Split(doc.Content)
	chunks := make([]document.Chunk, len(fragments))
	for i, f := range fragments {
		chunks[i] = document.Chunk{Seq: i, Content: f.Text, Start: f.Start, End: f.End}
	}
	return chunks, nil
}

// attachImages assigns each image in doc.Images to the chunk whose
// [Start, End) range covers its first reference offset in doc.Content,
// resolving a boundary tie to the later chunk.
func attachImages(doc document.Document, chunks []document.Chunk) []document.Chunk {
	if len(doc.Images) == 0 {
		return chunks
	}

	seen := make(map[string]bool, len(doc.Images))
	for _, m := range imageRefPattern.FindAllStringSubmatchIndex(doc.Content, -1) {
		ref := doc.Content[m[2]:m[3]]
		if seen[ref] {
			continue
		}
		if _, ok := doc.Images[ref]; !ok {
			continue
		}
		seen[ref] = true

		startOffset := utf8.RuneCountInString(doc.Content[:m[0]])
		endOffset := utf8.RuneCountInString(doc.Content[:m[1]])

		for i := range chunks {
			if chunks[i].Covers(startOffset) {
				chunks[i].Images = append(chunks[i].Images, document.ImageRecord{
					URL:         ref,
					OriginalURL: ref,
					Start:       startOffset,
					End:         endOffset,
				})
				break
			}
		}
	}
	return chunks
}

// populateImageText runs OCR and VLM captioning for every image across
// every chunk concurrently, bounded by imageConcurrency. images maps each
// image's reference key to its base64 payload, as stored in
// Document.Images. Per-image failures are isolated: a failed caption or
// OCR call simply leaves that field empty. An
// image whose payload is not present in the map (e.g. a pre-existing
// external URL the parser deliberately left unresolved) is skipped.
func (s *Service) populateImageText(ctx context.Context, images map[string]string, chunks []document.Chunk) {
	if s.ocr == nil && s.vlmImpl == nil {
		return
	}

	sem := make(chan struct{}, s.imageConcurrency)
	var wg sync.WaitGroup

	for ci := range chunks {
		for ii := range chunks[ci].Images {
			img := &chunks[ci].Images[ii]
			payload, ok := images[img.URL]
			if !ok {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(payload)
			if err != nil {
				continue
			}

			wg.Add(1)
			sem <- struct{}{}
			go func(img *document.ImageRecord, raw []byte, payload string) {
				defer wg.Done()
				defer func() { <-sem }()
				s.captionAndRecognize(ctx, img, raw, payload)
			}(img, raw, payload)
		}
	}

	wg.Wait()
}

func (s *Service) captionAndRecognize(ctx context.Context, img *document.ImageRecord, raw []byte, payload string) {
	if ctx.Err() != nil {
		return
	}
	var wg sync.WaitGroup

	if s.ocr != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := s.ocr.Predict(ctx, raw)
			if err != nil {
				s.log.Warn("ingest: ocr failed, leaving ocr_text empty", zap.Error(err))
				return
			}
			img.OCRText = text
		}()
	}

	if s.vlmImpl != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			caption, err := s.vlmImpl.Caption(ctx, payload)
			if err != nil {
				s.log.Warn("ingest: caption failed, leaving caption empty", zap.Error(err))
				return
			}
			img.Caption = caption
		}()
	}

	wg.Wait()
}

func toChunkResults(chunks []document.Chunk) []ChunkResult {
	out := make([]ChunkResult, len(chunks))
	for i, c := range chunks {
		images := make([]ImageResult, len(c.Images))
		for j, img := range c.Images {
			images[j] = ImageResult{
				URL:         img.URL,
				OriginalURL: img.OriginalURL,
				Caption:     img.Caption,
				OCRText:     img.OCRText,
				Start:       img.Start,
				End:         img.End,
			}
		}
		out[i] = ChunkResult{
			Content: c.Content,
			Seq:     c.Seq,
			Start:   c.Start,
			End:     c.End,
			Images:  images,
		}
	}
	return out
}
