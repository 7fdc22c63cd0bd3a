// Package sitteradapter converts between editor coordinates (lines and
// UTF-16 code units) and tree-sitter coordinates (bytes and byte columns).
package sitteradapter

import (
	"bytes"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Lines indexes the start offset of every line of a text.
type Lines struct {
	text   []byte
	starts []uint32
}

// NewLines indexes text. The index shares the slice, so text must not be
// modified while the index is in use.
func NewLines(text []byte) *Lines {
	starts := []uint32{0}
	for i, b := range text {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return &Lines{text: text, starts: starts}
}

// Count returns the number of lines. A trailing newline opens an empty line.
func (l *Lines) Count() int { return len(l.starts) }

// line returns the content of line n without its line terminator.
func (l *Lines) line(n uint32) []byte {
	start := l.starts[n]
	end := uint32(len(l.text))
	if int(n)+1 < len(l.starts) {
		end = l.starts[n+1] - 1
	}
	return bytes.TrimSuffix(l.text[start:end], []byte{'\r'})
}

// Offset converts an editor position to a byte offset and a tree-sitter
// point. ok is false when the position does not exist in the text; the
// returned values are then clamped to the closest valid location.
func (l *Lines) Offset(pos protocol.Position) (offset uint32, point sitter.Point, ok bool) {
	ok = true
	if int(pos.Line) >= len(l.starts) {
		ok = false
		pos.Line = uint32(len(l.starts) - 1)
		pos.Character = ^uint32(0)
	}
	line := l.line(pos.Line)
	var units, col uint32
	for units < pos.Character {
		if int(col) >= len(line) {
			ok = false
			break
		}
		r, size := utf8.DecodeRune(line[col:])
		n := uint32(1)
		if r > 0xFFFF {
			n = 2
		}
		if units+n > pos.Character {
			// position falls inside a surrogate pair
			ok = false
			break
		}
		units += n
		col += uint32(size)
	}
	return l.starts[pos.Line] + col, sitter.Point{Row: pos.Line, Column: col}, ok
}

// Position converts a tree-sitter point to an editor position.
func (l *Lines) Position(pt sitter.Point) protocol.Position {
	if int(pt.Row) >= len(l.starts) {
		last := uint32(len(l.starts) - 1)
		return protocol.Position{Line: last, Character: l.LineLength(last)}
	}
	line := l.line(pt.Row)
	if int(pt.Column) > len(line) {
		pt.Column = uint32(len(line))
	}
	return protocol.Position{Line: pt.Row, Character: utf16Len(line[:pt.Column])}
}

// Range converts the span of a node to an editor range.
func (l *Lines) Range(n *sitter.Node) protocol.Range {
	return protocol.Range{
		Start: l.Position(n.StartPoint()),
		End:   l.Position(n.EndPoint()),
	}
}

// Point converts an editor position to a tree-sitter point, clamping
// positions outside the text.
func (l *Lines) Point(pos protocol.Position) sitter.Point {
	_, pt, _ := l.Offset(pos)
	return pt
}

// LineLength returns the length of a line in UTF-16 code units, excluding
// the line terminator.
func (l *Lines) LineLength(n uint32) uint32 {
	if int(n) >= len(l.starts) {
		return 0
	}
	return utf16Len(l.line(n))
}

func utf16Len(b []byte) uint32 {
	var n uint32
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
		b = b[size:]
	}
	return n
}

// EndPoint computes the point reached after inserting text at start.
func EndPoint(start sitter.Point, text string) sitter.Point {
	last := bytes.LastIndexByte([]byte(text), '\n')
	if last < 0 {
		return sitter.Point{Row: start.Row, Column: start.Column + uint32(len(text))}
	}
	rows := uint32(bytes.Count([]byte(text), []byte{'\n'}))
	return sitter.Point{Row: start.Row + rows, Column: uint32(len(text) - last - 1)}
}

// Edit describes the replacement of the editor range r by text in the text
// indexed by l. ok is false when r does not exist in the text.
func (l *Lines) Edit(r protocol.Range, text string) (edit sitter.EditInput, ok bool) {
	start, startPt, okStart := l.Offset(r.Start)
	end, endPt, okEnd := l.Offset(r.End)
	ok = okStart && okEnd
	if end < start {
		ok = false
		end, endPt = start, startPt
	}
	return sitter.EditInput{
		StartIndex:  start,
		OldEndIndex: end,
		NewEndIndex: start + uint32(len(text)),
		StartPoint:  startPt,
		OldEndPoint: endPt,
		NewEndPoint: EndPoint(startPt, text),
	}, ok
}
