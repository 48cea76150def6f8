package solgraph

import (
	"unicode/utf8"
)

// Position is a zero-based line and column pair. Column counts bytes within
// the line, except where a function documents UTF-16 code units (the editor
// protocol convention).
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Location is a resolved span: the file it lands in plus start and end
// positions and the byte length of the region.
type Location struct {
	Path   string   `json:"path"`
	Start  Position `json:"start"`
	End    Position `json:"end"`
	Length int      `json:"length"`
}

// ByteOffsetToUTF16 converts a byte offset into content to a position whose
// column counts UTF-16 code units, the unit editors speak. Offsets past the
// end of content clamp to the final position. The offset should fall on a
// rune boundary; spans produced by the compiler always do.
func ByteOffsetToUTF16(content []byte, offset int) Position {
	if offset > len(content) {
		offset = len(content)
	}
	line := 0
	lineStart := 0
	for i := 0; i < offset; i++ {
		if content[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return Position{Line: line, Column: utf16Len(content[lineStart:offset])}
}

// UTF16ToByteOffset converts an editor position (line plus UTF-16 column)
// into a byte offset. Lines past the end of content map to len(content);
// columns past the end of a line map to the line end. A column landing
// inside a surrogate pair rounds forward past the character.
func UTF16ToByteOffset(content []byte, pos Position) int {
	line := 0
	lineStart := 0
	for i := 0; line < pos.Line && i < len(content); i++ {
		if content[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	if line < pos.Line {
		return len(content)
	}
	offset := lineStart
	units := 0
	for offset < len(content) && content[offset] != '\n' {
		if units >= pos.Column {
			break
		}
		r, size := utf8.DecodeRune(content[offset:])
		units += utf16RuneLen(r)
		offset += size
	}
	return offset
}

func utf16Len(b []byte) int {
	n := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		n += utf16RuneLen(r)
		b = b[size:]
	}
	return n
}

func utf16RuneLen(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
