package chunking

import (
	"strings"
	"unicode/utf8"
)

// joinWithProtected walks splits and protect together, maintaining a rune
// position cursor, and re-cuts split boundaries so that every protected
// region appears as exactly one element of the result — splitting off the
// content before and after it from whichever split element it happens to
// overlap. Concatenating the result equals the concatenation of splits.
func joinWithProtected(splits []string, protect []protectedMatch) []string {
	j := 0
	point, start := 0, 0
	var res []string

	for _, split := range splits {
		runes := []rune(split)
		end := start + len(runes)

		// cur is the portion of this split not yet consumed, as runes so
		// slicing lines up with protect's rune offsets.
		cur := runes[max0(point-start):]

		for j < len(protect) {
			p := protect[j]
			if end <= p.start {
				break
			}

			if point < p.start {
				localEnd := p.start - point
				if localEnd > len(cur) {
					localEnd = len(cur)
				}
				res = append(res, string(cur[:localEnd]))
				cur = cur[localEnd:]
				point = p.start
			}

			res = append(res, p.text)
			j++

			if point < p.end {
				localStart := p.end - point
				if localStart > len(cur) {
					localStart = len(cur)
				}
				cur = cur[localStart:]
				point = p.end
			}

			if len(cur) == 0 {
				break
			}
		}

		if len(cur) > 0 {
			res = append(res, string(cur))
			point = end
		}
		start = end
	}
	return res
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// merge assembles joined fragments into chunks with bounded overlap and
// prepended contextual headers, tracking each fragment's rune offset in the
// original text as it goes.
func (s *Splitter) merge(joined []string, original string) []Fragment {
	tracker := NewHeaderTracker()

	type buffered struct {
		start, end int
		text       string
	}
	var buffer []buffered
	var chunks []Fragment

	bufLen := 0
	curStart := 0

	emit := func() {
		if len(buffer) == 0 {
			return
		}
		var text string
		for _, b := range buffer {
			text += b.text
		}
		chunks = append(chunks, Fragment{
			Start: buffer[0].start,
			End:   buffer[len(buffer)-1].end,
			Text:  text,
		})
	}

	for _, f := range joined {
		fLen := utf8.RuneCountInString(f)
		curEnd := curStart + fLen

		tracker.Update(f)
		headers := tracker.Headers()
		headerLen := utf8.RuneCountInString(headers)
		if headerLen > s.cfg.ChunkSize {
			headers, headerLen = "", 0
		}

		if bufLen+fLen+headerLen > s.cfg.ChunkSize && len(buffer) > 0 {
			emit()

			for len(buffer) > 0 && (bufLen > s.cfg.ChunkOverlap || bufLen+fLen+headerLen > s.cfg.ChunkSize) {
				bufLen -= utf8.RuneCountInString(buffer[0].text)
				buffer = buffer[1:]
			}

			if headers != "" && fLen+headerLen < s.cfg.ChunkSize && !strings.Contains(f, headers) {
				nextStart := curStart
				if len(buffer) > 0 {
					nextStart = buffer[0].start
				}
				headerStart := nextStart - headerLen
				if headerStart < 0 {
					headerStart = 0
				}
				buffer = append([]buffered{{start: headerStart, end: curEnd, text: headers}}, buffer...)
				bufLen += headerLen
			}
		}

		buffer = append(buffer, buffered{start: curStart, end: curEnd, text: f})
		bufLen += fLen
		curStart = curEnd
	}

	emit()
	return chunks
}
