// Package formats implements the concrete format parsers the dispatcher
// selects between: one per file kind, each built by composing the parser
// combinators in package parser with the Markdown utilities and the
// storage/OCR/VLM collaborators.
package formats

import (
	"bytes"
	"context"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"

	"github.com/kestrel-data/docreader/internal/document"
	"github.com/kestrel-data/docreader/internal/parser"
)

// textEncodingCascade is tried in order until one decodes the bytes
// without producing the replacement character; latin-1 (ISO-8859-1) never
// fails to decode (every byte value is a valid code point in it), so it is
// both a cascade member and the unconditional final fallback.
var textEncodingCascade = []struct {
	name string
	enc  encoding.Encoding
}{
	{"gb18030", simplifiedchinese.GB18030},
	{"gbk", simplifiedchinese.GBK},
	{"big5", traditionalchinese.Big5},
	{"latin-1", charmap.ISO8859_1},
}

// NewText decodes bytes to a string using an encoding cascade: utf-8 first
// (the common case, checked without a conversion library), then
// gb18030/gbk/big5, and finally latin-1 with replacement — a decode that
// cannot itself fail, so DecodeError never surfaces past this parser.
func NewText() parser.Parser {
	return parser.Func(func(_ context.Context, content []byte) (document.Document, error) {
		if utf8.Valid(content) {
			return document.Document{Content: string(content)}, nil
		}
		for _, candidate := range textEncodingCascade {
			decoded, err := candidate.enc.NewDecoder().Bytes(content)
			if err == nil && utf8.Valid(decoded) && !bytes.ContainsRune(decoded, utf8.RuneError) {
				return document.Document{Content: string(decoded)}, nil
			}
		}
		// charmap.ISO8859_1 never errors, so this path is unreachable in
		// practice; kept as the documented final fallback.
		decoded, _ := charmap.ISO8859_1.NewDecoder().Bytes(content)
		return document.Document{Content: string(decoded)}, nil
	})
}
