package chunking

import (
	"regexp"
	"sort"
	"unicode/utf8"
)

// protectedPatterns is the ordered list of regular expressions matching
// structures that must never be split across chunks: LaTeX block math,
// Markdown image and link syntax, a Markdown table's header-plus-alignment
// row, a Markdown table body row, and a fenced code block's opening line
// together with its first content line.
var protectedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)\$\$.*?\$\$`),
	regexp.MustCompile(`!\[.*?\]\(.*?\)`),
	regexp.MustCompile(`\[.*?\]\(.*?\)`),
	regexp.MustCompile(`(?:\|[^|\n]*)+\|[\r\n]+\s*(?:\|\s*:?-{3,}:?\s*)+\|[\r\n]+`),
	regexp.MustCompile(`(?:\|[^|\n]*)+\|[\r\n]+`),
	regexp.MustCompile("```(?:[[:word:]]+)[\r\n]+[^\r\n]*"),
}

type protectedMatch struct {
	start, end int
	text       string
}

// extractProtectedRegions finds every protected-region match in text, then
// walks them in (start ascending, length descending) order admitting a
// match only if its start is at or beyond the furthest end seen so far and
// its length is strictly less than chunkSize. Matches rejected for being
// too long are still admitted into the furthest-end cursor and are counted
// in droppedCount; they are not protected. This applies uniformly to every pattern above, including the
// generic link pattern — a long Markdown link is deliberately left
// unprotected rather than specially cased.
//
// The cursor itself advances for every match the walk considers, not just
// the ones it admits as protected — including a match whose start falls
// before the cursor and is therefore skipped outright. A skipped match
// still shadows the span it covers, so a later match starting inside it
// must not slip in.
func extractProtectedRegions(text string, chunkSize int) (admitted []protectedMatch, droppedCount int) {
	// regexp reports byte offsets; the rest of the splitter (and the
	// offsets exposed on Chunk/ImageRecord) are rune-indexed. Convert once
	// per match rather than threading a byte/rune distinction through
	// every downstream consumer.
	runeOffset := func(byteOffset int) int { return utf8.RuneCountInString(text[:byteOffset]) }

	var all []protectedMatch
	for _, pattern := range protectedPatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			all = append(all, protectedMatch{
				start: runeOffset(loc[0]),
				end:   runeOffset(loc[1]),
				text:  text[loc[0]:loc[1]],
			})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return (all[i].end - all[i].start) > (all[j].end - all[j].start)
	})

	furthest := -1
	for _, m := range all {
		if m.start >= furthest {
			if m.end-m.start < chunkSize {
				admitted = append(admitted, m)
			} else {
				droppedCount++
			}
		}
		if m.end > furthest {
			furthest = m.end
		}
	}
	return admitted, droppedCount
}
