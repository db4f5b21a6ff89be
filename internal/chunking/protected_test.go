package chunking

import "testing"

func TestExtractProtectedRegionsMathBlock(t *testing.T) {
	text := "before $$x^2 + y^2$$ after"
	admitted, dropped := extractProtectedRegions(text, 100)
	if len(admitted) != 1 {
		t.Fatalf("len(admitted) = %d, want 1", len(admitted))
	}
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if got := admitted[0].text; got != "$$x^2 + y^2$$" {
		t.Errorf("admitted text = %q, want %q", got, "$$x^2 + y^2$$")
	}
}

func TestExtractProtectedRegionsDropsOverSizedMatch(t *testing.T) {
	text := "see [a very long link text right here](https://example.com/path) done"
	link := "[a very long link text right here](https://example.com/path)"
	admitted, dropped := extractProtectedRegions(text, len(link)-5)
	if len(admitted) != 0 {
		t.Errorf("len(admitted) = %d, want 0 for an over-sized match", len(admitted))
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestExtractProtectedRegionsKeepsMarkdownLinkUnderSize(t *testing.T) {
	text := "see [short](x) done"
	admitted, _ := extractProtectedRegions(text, 100)
	if len(admitted) != 1 || admitted[0].text != "[short](x)" {
		t.Fatalf("admitted = %+v, want a single match on the link", admitted)
	}
}

func TestExtractProtectedRegionsOverlapPrefersEarliestLongest(t *testing.T) {
	// The image pattern matches from offset 0; the generic link pattern
	// matches "[alt](img.png)" one rune later, inside the image's span. The
	// earlier image match is admitted first, so the link match, which starts
	// before the furthest end seen, is suppressed.
	text := "![alt](img.png) more text"
	admitted, _ := extractProtectedRegions(text, 100)
	if len(admitted) != 1 {
		t.Fatalf("len(admitted) = %d, want 1", len(admitted))
	}
	if admitted[0].text != "![alt](img.png)" {
		t.Errorf("admitted text = %q, want the image match to win", admitted[0].text)
	}
}

func TestExtractProtectedRegionsEmptyInput(t *testing.T) {
	admitted, dropped := extractProtectedRegions("", 50)
	if len(admitted) != 0 || dropped != 0 {
		t.Errorf("got (%v, %d), want (nil, 0) for empty input", admitted, dropped)
	}
}

func TestExtractProtectedRegionsCursorAdvancesOnSkippedOverlap(t *testing.T) {
	// s1 is a math match (0,len(s1)) that gets admitted.
	// The image pattern also matches starting inside s1 (at its "!") and,
	// because its closing ")" isn't found until s3, finishes well past
	// s1's end — call that image match (start2, end2). It is itself
	// skipped as an overlap (its start falls before s1's end), but the
	// furthest-end cursor must still advance to its end2, not stop at
	// s1's end. s2 is a second, independent math match that starts
	// exactly at s1's end and would wrongly be admitted if the cursor
	// had not advanced past end2 — it must be skipped too, since it
	// falls inside the image match's span.
	s1 := "$$![y](z$$"
	s2 := "$$n$$"
	s3 := ")"
	text := s1 + s2 + s3

	admitted, _ := extractProtectedRegions(text, 100)

	if len(admitted) != 1 {
		t.Fatalf("len(admitted) = %d, want 1 (the image match's reach must suppress the second math match), admitted = %+v", len(admitted), admitted)
	}
	if admitted[0].text != s1 {
		t.Errorf("admitted[0].text = %q, want %q", admitted[0].text, s1)
	}
	for _, m := range admitted {
		if m.text == s2 {
			t.Errorf("second math match %q was admitted; the cursor should have advanced past the skipped image overlap and excluded it", s2)
		}
	}
}

func TestExtractProtectedRegionsRuneOffsets(t *testing.T) {
	text := "中文 $$a+b$$ 结束"
	admitted, _ := extractProtectedRegions(text, 100)
	if len(admitted) != 1 {
		t.Fatalf("len(admitted) = %d, want 1", len(admitted))
	}
	m := admitted[0]
	runes := []rune(text)
	if got := string(runes[m.start:m.end]); got != m.text {
		t.Errorf("rune-sliced text = %q, want %q (offsets must be rune-indexed, not byte-indexed)", got, m.text)
	}
}
