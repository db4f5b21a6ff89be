package parser_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kestrel-data/docreader/internal/document"
	"github.com/kestrel-data/docreader/internal/parser"
)

func alwaysFails(ctx context.Context, content []byte) (document.Document, error) {
	return document.Document{}, errors.New("boom")
}

func returnsEmpty(ctx context.Context, content []byte) (document.Document, error) {
	return document.Document{}, nil
}

func returnsValid(text string) parser.Func {
	return func(ctx context.Context, content []byte) (document.Document, error) {
		return document.Document{Content: text}, nil
	}
}

// A chain over
// [AlwaysFails, ReturnsEmpty, ReturnsValid("hello")] settles on "hello",
// with neither earlier stage contributing.
func TestFirstSuccessPicksFirstValidDocument(t *testing.T) {
	chain := parser.FirstSuccess(zap.NewNop(), "test-chain",
		parser.Func(alwaysFails),
		parser.Func(returnsEmpty),
		returnsValid("hello"),
	)

	doc, err := chain.ParseIntoText(context.Background(), nil)
	if err != nil {
		t.Fatalf("ParseIntoText() error = %v", err)
	}
	if doc.Content != "hello" {
		t.Errorf("Content = %q, want %q", doc.Content, "hello")
	}
}

func TestFirstSuccessAllFailYieldsEmptyDocument(t *testing.T) {
	chain := parser.FirstSuccess(zap.NewNop(), "test-chain",
		parser.Func(alwaysFails),
		parser.Func(returnsEmpty),
	)

	doc, err := chain.ParseIntoText(context.Background(), nil)
	if err != nil {
		t.Fatalf("ParseIntoText() error = %v, want nil even when every stage fails", err)
	}
	if doc.Valid() {
		t.Errorf("Document = %+v, want invalid empty Document", doc)
	}
}

func TestFirstSuccessRecoversFromPanic(t *testing.T) {
	panics := parser.Func(func(ctx context.Context, content []byte) (document.Document, error) {
		panic("stage exploded")
	})
	chain := parser.FirstSuccess(zap.NewNop(), "test-chain", panics, returnsValid("survived"))

	doc, err := chain.ParseIntoText(context.Background(), nil)
	if err != nil {
		t.Fatalf("ParseIntoText() error = %v", err)
	}
	if doc.Content != "survived" {
		t.Errorf("Content = %q, want %q after recovering from panic", doc.Content, "survived")
	}
}

func TestPipelineThreadsContentAndMergesImages(t *testing.T) {
	stage1 := parser.Func(func(ctx context.Context, content []byte) (document.Document, error) {
		return document.Document{
			Content: string(content) + "-stage1",
			Images:  map[string]string{"a": "1", "shared": "from-stage1"},
		}, nil
	})
	stage2 := parser.Func(func(ctx context.Context, content []byte) (document.Document, error) {
		return document.Document{
			Content: string(content) + "-stage2",
			Images:  map[string]string{"b": "2", "shared": "from-stage2"},
		}, nil
	})

	pipe := parser.Pipeline(stage1, stage2)
	doc, err := pipe.ParseIntoText(context.Background(), []byte("start"))
	if err != nil {
		t.Fatalf("ParseIntoText() error = %v", err)
	}
	if doc.Content != "start-stage1-stage2" {
		t.Errorf("Content = %q, want threaded stage output", doc.Content)
	}
	if doc.Images["a"] != "1" || doc.Images["b"] != "2" {
		t.Errorf("Images = %+v, want keys from both stages", doc.Images)
	}
	if doc.Images["shared"] != "from-stage2" {
		t.Errorf("Images[shared] = %q, want later stage to win on key collision", doc.Images["shared"])
	}
}

func TestPipelinePropagatesStageError(t *testing.T) {
	pipe := parser.Pipeline(parser.Func(alwaysFails), returnsValid("unreachable"))
	_, err := pipe.ParseIntoText(context.Background(), nil)
	if err == nil {
		t.Fatal("ParseIntoText() error = nil, want propagated stage error")
	}
}
