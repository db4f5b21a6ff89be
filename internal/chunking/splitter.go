// Package chunking implements the size-bounded, overlap-aware text splitter:
// recursive separator-based fragmentation, protected-region extraction
// (tables, math, code fences, Markdown image/link syntax), and a final
// merge pass that assembles fragments into chunks with bounded overlap and
// prepended contextual headers.
package chunking

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Config controls the splitter. ChunkSize and ChunkOverlap are measured in
// runes so that offsets stay meaningful across multi-byte scripts.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// DefaultConfig returns the splitter's documented defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    512,
		ChunkOverlap: 50,
		Separators:   []string{"\n\n", "\n", "。"},
	}
}

// Splitter turns text into offset-anchored chunks.
type Splitter struct {
	cfg Config
}

// New validates cfg and constructs a Splitter. It refuses configurations
// where the overlap could never shrink a chunk.
func New(cfg Config) (*Splitter, error) {
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunking: chunk size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 {
		return nil, fmt.Errorf("chunking: chunk overlap must be non-negative, got %d", cfg.ChunkOverlap)
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("chunking: chunk overlap (%d) must be smaller than chunk size (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if len(cfg.Separators) == 0 {
		cfg.Separators = nil // character-level fallback still terminates
	}
	return &Splitter{cfg: cfg}, nil
}

// Fragment is a piece of text tagged with its rune offsets in the original
// input.
type Fragment struct {
	Start, End int
	Text       string
}

// Split runs the four-step algorithm and returns chunks in ascending offset
// order. Empty input yields an empty list.
func (s *Splitter) Split(text string) []Fragment {
	if text == "" {
		return nil
	}

	fragments := s.splitRecursive(text)
	protected, _ := extractProtectedRegions(text, s.cfg.ChunkSize)
	joined := joinWithProtected(fragments, protected)
	return s.merge(joined, text)
}

// splitRecursive produces a list of strings whose concatenation equals
// text, each no longer than ChunkSize runes. It tries each separator in
// priority order, keeping the first one that yields more than one part,
// and falls back to per-rune splitting when none does.
func (s *Splitter) splitRecursive(text string) []string {
	if utf8.RuneCountInString(text) <= s.cfg.ChunkSize {
		return []string{text}
	}

	var parts []string
	for _, sep := range s.cfg.Separators {
		candidate := splitKeepSeparator(text, sep)
		if len(candidate) > 1 {
			parts = candidate
			break
		}
	}
	if parts == nil {
		parts = splitIntoRunes(text)
	}

	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if utf8.RuneCountInString(part) <= s.cfg.ChunkSize {
			result = append(result, part)
		} else {
			result = append(result, s.splitRecursive(part)...)
		}
	}
	return result
}

// splitKeepSeparator splits text on sep and re-attaches sep to the front of
// every part after the first, so the separator travels with the text that
// follows it rather than the text that precedes it. The empty first part
// left by a separator at the very start is dropped; adjacent separators
// yield a piece that is the bare separator, which is kept.
func splitKeepSeparator(text, sep string) []string {
	rawParts := strings.Split(text, sep)
	out := make([]string, 0, len(rawParts))
	for i, part := range rawParts {
		piece := part
		if i > 0 {
			piece = sep + part
		}
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

func splitIntoRunes(text string) []string {
	runes := []rune(text)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}
