// Package semtok builds the semantic tokens of a document from the
// highlights of the Earthfile tree and of its embedded shell trees.
package semtok

import (
	"sort"

	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/parser"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Token types, in legend order.
const (
	TypeComment uint32 = iota
	TypeFunction
	TypeKeyword
	TypeOperator
	TypeParameter
	TypeProperty
	TypeString
	TypeVariable
	TypeType
	TypeNumber
	TypeRegexp
)

// Legend is announced to the client at initialization.
var Legend = protocol.SemanticTokensLegend{
	TokenTypes: []string{
		string(protocol.SemanticTokenTypeComment),
		string(protocol.SemanticTokenTypeFunction),
		string(protocol.SemanticTokenTypeKeyword),
		string(protocol.SemanticTokenTypeOperator),
		string(protocol.SemanticTokenTypeParameter),
		string(protocol.SemanticTokenTypeProperty),
		string(protocol.SemanticTokenTypeString),
		string(protocol.SemanticTokenTypeVariable),
		string(protocol.SemanticTokenTypeType),
		string(protocol.SemanticTokenTypeNumber),
		string(protocol.SemanticTokenTypeRegexp),
	},
	TokenModifiers: []string{},
}

var earthfileTypes = map[string]uint32{
	"comment":               TypeComment,
	"function":              TypeFunction,
	"keyword":               TypeKeyword,
	"keyword.conditional":   TypeKeyword,
	"keyword.exception":     TypeKeyword,
	"keyword.function":      TypeKeyword,
	"keyword.import":        TypeKeyword,
	"keyword.repeat":        TypeKeyword,
	"number":                TypeNumber,
	"operator":              TypeOperator,
	"property":              TypeProperty,
	"punctuation.bracket":   TypeOperator,
	"punctuation.delimiter": TypeOperator,
	"punctuation.special":   TypeOperator,
	"string":                TypeString,
	"string.escape":         TypeString,
	"string.special":        TypeString,
	"type":                  TypeType,
	"variable":              TypeVariable,
	"variable.parameter":    TypeParameter,
}

var bashTypes = map[string]uint32{
	"boolean":                     TypeType,
	"character.special":           TypeOperator,
	"comment":                     TypeComment,
	"constant":                    TypeVariable,
	"constant.builtin":            TypeVariable,
	"function":                    TypeFunction,
	"function.builtin":            TypeFunction,
	"function.call":               TypeFunction,
	"keyword":                     TypeKeyword,
	"keyword.conditional":         TypeKeyword,
	"keyword.conditional.ternary": TypeKeyword,
	"keyword.directive":           TypeKeyword,
	"keyword.function":            TypeKeyword,
	"keyword.repeat":              TypeKeyword,
	"label":                       TypeProperty,
	"number":                      TypeNumber,
	"operator":                    TypeOperator,
	"punctuation.bracket":         TypeOperator,
	"punctuation.delimiter":       TypeOperator,
	"punctuation.special":         TypeOperator,
	"string":                      TypeString,
	"string.regexp":               TypeRegexp,
	"variable":                    TypeVariable,
	"variable.parameter":          TypeParameter,
}

// Span is a classified range of a document.
type Span struct {
	Range protocol.Range
	Type  uint32
}

// Collect returns the classified spans of d, restricted to r when it is not
// nil. Earthfile spans come first, then the spans of each shell fragment.
func Collect(d *document.Document, r *protocol.Range) []Span {
	var spans []Span
	add := func(matches []parser.Match, types map[string]uint32) {
		for _, m := range matches {
			for _, c := range m.Captures {
				t, ok := types[c.Name]
				if !ok {
					continue
				}
				spans = append(spans, Span{Range: d.Range(c.Node), Type: t})
			}
		}
	}
	q := parser.Queries()
	add(d.Matches(q.EarthfileHighlights, r), earthfileTypes)
	add(d.EmbeddedMatches(q.BashHighlights, r), bashTypes)
	return spans
}

func before(a, b protocol.Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Character < b.Character)
}

func less(a, b Span) bool {
	if a.Range.Start != b.Range.Start {
		return before(a.Range.Start, b.Range.Start)
	}
	return before(a.Range.End, b.Range.End)
}

func empty(r protocol.Range) bool {
	return !before(r.Start, r.End)
}

// Merge turns spans into a sorted list of non-overlapping single-line spans.
// A span crossing lines is cut at the end of its first line, whose length is
// given by lineLength. Where spans overlap, the one sorted last wins and the
// others keep only their parts outside of it.
func Merge(spans []Span, lineLength func(line uint32) uint32) []Span {
	clipped := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Range.Start.Line != s.Range.End.Line {
			s.Range.End = protocol.Position{Line: s.Range.Start.Line, Character: lineLength(s.Range.Start.Line)}
		}
		if empty(s.Range) {
			continue
		}
		clipped = append(clipped, s)
	}
	sort.SliceStable(clipped, func(i, j int) bool { return less(clipped[i], clipped[j]) })

	var placed []Span
	for _, s := range clipped {
		// placed is sorted and non-overlapping, so its ends are sorted too
		// and only its tail can overlap s.
		i := len(placed)
		for i > 0 && before(s.Range.Start, placed[i-1].Range.End) {
			i--
		}
		tail := []Span{s}
		for _, p := range placed[i:] {
			if !before(p.Range.Start, s.Range.End) {
				tail = append(tail, p)
				continue
			}
			if before(p.Range.Start, s.Range.Start) {
				left := p
				left.Range.End = s.Range.Start
				tail = append(tail, left)
			}
			if before(s.Range.End, p.Range.End) {
				right := p
				right.Range.Start = s.Range.End
				tail = append(tail, right)
			}
		}
		sort.SliceStable(tail, func(i, j int) bool { return less(tail[i], tail[j]) })
		placed = append(placed[:i], tail...)
	}
	return placed
}

// Encode delta encodes merged spans into the semantic tokens wire format.
func Encode(spans []Span) []protocol.UInteger {
	data := make([]protocol.UInteger, 0, 5*len(spans))
	var prev protocol.Position
	for _, s := range spans {
		start := s.Range.Start
		deltaStart := start.Character
		if start.Line == prev.Line {
			deltaStart -= prev.Character
		}
		data = append(data,
			start.Line-prev.Line,
			deltaStart,
			s.Range.End.Character-start.Character,
			s.Type,
			0,
		)
		prev = start
	}
	return data
}

// Tokens returns the encoded semantic tokens of d, restricted to r when it is
// not nil.
func Tokens(d *document.Document, r *protocol.Range) []protocol.UInteger {
	return Encode(Merge(Collect(d, r), d.Lines().LineLength))
}
