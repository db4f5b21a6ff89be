package chunking_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kestrel-data/docreader/internal/chunking"
)

func mustSplitter(t *testing.T, cfg chunking.Config) *chunking.Splitter {
	t.Helper()
	s, err := chunking.New(cfg)
	if err != nil {
		t.Fatalf("chunking.New() error = %v", err)
	}
	return s
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []chunking.Config{
		{ChunkSize: 0, ChunkOverlap: 0},
		{ChunkSize: 10, ChunkOverlap: -1},
		{ChunkSize: 10, ChunkOverlap: 10},
		{ChunkSize: 10, ChunkOverlap: 20},
	}
	for _, cfg := range cases {
		if _, err := chunking.New(cfg); err == nil {
			t.Errorf("New(%+v) expected error, got nil", cfg)
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	s := mustSplitter(t, chunking.DefaultConfig())
	if got := s.Split(""); got != nil {
		t.Errorf("Split(\"\") = %v, want nil", got)
	}
}

func TestSplitShorterThanChunkSize(t *testing.T) {
	s := mustSplitter(t, chunking.Config{ChunkSize: 200, ChunkOverlap: 20, Separators: []string{"\n\n", "\n", " "}})
	chunks := s.Split("hello world")
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].Start != 0 || chunks[0].End != utf8.RuneCountInString("hello world") {
		t.Errorf("chunk offsets = (%d,%d), want (0,11)", chunks[0].Start, chunks[0].End)
	}
}

// Mirrors the documented paragraph-boundary worked example: a split on the
// "\n\n" separator keeps "A" and "\n\nB" as separate chunks with the
// separator attached to the leading edge of the second.
func TestSplitParagraphBoundary(t *testing.T) {
	s := mustSplitter(t, chunking.Config{ChunkSize: 3, ChunkOverlap: 1, Separators: []string{"\n\n", "\n", " "}})
	chunks := s.Split("A\n\nB")

	want := []chunking.Fragment{
		{Start: 0, End: 1, Text: "A"},
		{Start: 1, End: 4, Text: "\n\nB"},
	}
	assertFragments(t, chunks, want)
}

func TestSplitProtectsMathBlock(t *testing.T) {
	s := mustSplitter(t, chunking.Config{ChunkSize: 25, ChunkOverlap: 3, Separators: []string{" "}})
	text := `aaaa bbbb cccc $$\int_0^1 x\,dx$$ dddd eeee ffff`
	chunks := s.Split(text)

	math := `$$\int_0^1 x\,dx$$`
	found := 0
	for _, c := range chunks {
		if strings.Contains(c.Text, math) {
			found++
		}
	}
	if found == 0 {
		t.Fatalf("math block was torn apart across chunks, want it intact in at least one")
	}
}

func TestSplitReconstructsOriginalViaOffsets(t *testing.T) {
	s := mustSplitter(t, chunking.Config{ChunkSize: 12, ChunkOverlap: 2, Separators: []string{"\n", " "}})
	text := "the quick brown fox jumps over the lazy dog again and again"
	chunks := s.Split(text)

	runes := []rune(text)
	for _, c := range chunks {
		want := string(runes[c.Start:c.End])
		if c.Text != want {
			t.Errorf("chunk %+v text %q does not match source slice %q", c, c.Text, want)
		}
	}
}

// Invariants from the testable-properties section: termination, bounded
// length, monotonic offsets, no gap between adjacent chunks (overlap is
// never negative).
func TestSplitInvariants(t *testing.T) {
	texts := []string{
		"",
		"short",
		strings.Repeat("word ", 500),
		strings.Repeat("段落。", 300),
		"line one\nline two\n\nline three\n" + strings.Repeat("x", 1000),
	}

	for _, text := range texts {
		s := mustSplitter(t, chunking.Config{ChunkSize: 64, ChunkOverlap: 8, Separators: []string{"\n\n", "\n", " ", "。"}})
		chunks := s.Split(text)

		lastStart := -1
		lastEnd := -1
		for i, c := range chunks {
			if utf8.RuneCountInString(c.Text) > 64 { // none of these inputs contain table syntax, so no header is ever prepended
				t.Errorf("text=%q chunk %d length %d exceeds bound", text, i, utf8.RuneCountInString(c.Text))
			}
			if c.Start < 0 || c.End < c.Start || c.End > utf8.RuneCountInString(text) {
				t.Errorf("text=%q chunk %d has invalid offsets (%d,%d)", text, i, c.Start, c.End)
			}
			if i > 0 {
				if c.Start <= lastStart {
					t.Errorf("text=%q chunk %d start %d not strictly increasing past %d", text, i, c.Start, lastStart)
				}
				if c.End < lastEnd {
					t.Errorf("text=%q chunk %d end %d decreased from %d", text, i, c.End, lastEnd)
				}
				if c.Start > lastEnd {
					t.Errorf("text=%q chunk %d start %d leaves a gap after previous end %d", text, i, c.Start, lastEnd)
				}
			}
			lastStart, lastEnd = c.Start, c.End
		}
	}
}

// A Markdown table whose rows collectively exceed the chunk size: every
// chunk after the first must begin with the table's header-plus-alignment
// rows, and no body row may be torn across chunks.
func TestSplitPrependsTableHeaderToFollowingChunks(t *testing.T) {
	s := mustSplitter(t, chunking.Config{ChunkSize: 60, ChunkOverlap: 20, Separators: []string{"\n\n", "\n"}})
	text := "| h1 | h2 |\n| --- | --- |\n| a | b |\n| c | d |\n| e | f |\n"
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("len(chunks) = %d, want at least 2", len(chunks))
	}

	header := "| h1 | h2 |\n| --- | --- |"
	for i, c := range chunks[1:] {
		if !strings.HasPrefix(c.Text, header) {
			t.Errorf("chunk %d = %q does not begin with the table header", i+1, c.Text)
		}
	}

	for _, row := range []string{"| a | b |\n", "| c | d |\n", "| e | f |\n"} {
		found := 0
		for _, c := range chunks {
			if strings.Contains(c.Text, row) {
				found++
			}
		}
		if found == 0 {
			t.Errorf("row %q was split across chunks, want it intact in at least one", row)
		}
	}

	for i, c := range chunks {
		if utf8.RuneCountInString(c.Text) > 60 {
			t.Errorf("chunk %d length %d exceeds chunk size including its header", i, utf8.RuneCountInString(c.Text))
		}
	}
}

func TestSplitSeparatorsEmptyFallsBackToRunes(t *testing.T) {
	s := mustSplitter(t, chunking.Config{ChunkSize: 4, ChunkOverlap: 1, Separators: nil})
	chunks := s.Split("abcdefgh")
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for _, c := range chunks {
		if utf8.RuneCountInString(c.Text) > 4 {
			t.Errorf("chunk %q exceeds chunk size with no separators configured", c.Text)
		}
	}
}

func assertFragments(t *testing.T, got []chunking.Fragment, want []chunking.Fragment) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d fragments, want %d: got=%+v want=%+v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fragment %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
