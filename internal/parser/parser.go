// Package parser implements the format-parser composition framework:
// a narrow Parser interface plus two combinators, FirstSuccess and
// Pipeline, that let concrete format parsers be composed by value rather
// than by subclassing.
package parser

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/document"
)

// Parser turns raw bytes into a Document. Implementations should return a
// non-nil error only for conditions the caller needs to react to (an
// unsupported input, say); recoverable internal failures are expected to
// surface as an invalid (empty) Document instead, so FirstSuccess can move
// on to its next candidate.
type Parser interface {
	ParseIntoText(ctx context.Context, content []byte) (document.Document, error)
}

// Func adapts a plain function to the Parser interface.
type Func func(ctx context.Context, content []byte) (document.Document, error)

// ParseIntoText implements Parser.
func (f Func) ParseIntoText(ctx context.Context, content []byte) (document.Document, error) {
	return f(ctx, content)
}

type firstSuccess struct {
	name    string
	log     *zap.Logger
	parsers []Parser
}

// FirstSuccess tries each parser in order, returning the first Document
// that reports itself valid. A parser that returns an error or panics is
// logged and skipped; one that returns an invalid Document is skipped
// without a log line. If
// every parser fails, FirstSuccess returns an empty Document and a nil
// error — callers further up the stack decide whether an empty result for
// this format is itself an error.
func FirstSuccess(log *zap.Logger, name string, parsers ...Parser) Parser {
	return &firstSuccess{name: name, log: log, parsers: parsers}
}

func (f *firstSuccess) ParseIntoText(ctx context.Context, content []byte) (doc document.Document, err error) {
	for _, p := range f.parsers {
		result, ok := f.tryOne(ctx, p, content)
		if ok && result.Valid() {
			return result, nil
		}
	}
	return document.Document{}, nil
}

func (f *firstSuccess) tryOne(ctx context.Context, p Parser, content []byte) (result document.Document, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Warn("parser panicked, trying next",
				zap.String("chain", f.name),
				zap.String("parser", fmt.Sprintf("%T", p)),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()

	result, err := p.ParseIntoText(ctx, content)
	if err != nil {
		f.log.Warn("parser failed, trying next",
			zap.String("chain", f.name),
			zap.String("parser", fmt.Sprintf("%T", p)),
			zap.Error(err),
		)
		return document.Document{}, false
	}
	return result, true
}

type pipeline struct {
	parsers []Parser
}

// Pipeline threads content through each parser in order: stage N's
// Document.Content becomes stage N+1's input bytes. Images produced by
// every stage are merged into the final Document, later stages winning on
// key collisions. An error from any stage aborts the whole pipeline.
func Pipeline(parsers ...Parser) Parser {
	return &pipeline{parsers: parsers}
}

func (p *pipeline) ParseIntoText(ctx context.Context, content []byte) (document.Document, error) {
	images := make(map[string]string)
	var doc document.Document

	for _, stage := range p.parsers {
		result, err := stage.ParseIntoText(ctx, content)
		if err != nil {
			return document.Document{}, fmt.Errorf("parser: pipeline stage %T: %w", stage, err)
		}
		doc = result
		content = []byte(doc.Content)
		for url, data := range doc.Images {
			images[url] = data
		}
	}

	doc.Images = images
	return doc, nil
}
