package semtok_test

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/parser"
	"github.com/glehmann/earthlyls/internal/semtok"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func span(sl, sc, el, ec uint32, t uint32) semtok.Span {
	return semtok.Span{
		Range: protocol.Range{
			Start: protocol.Position{Line: sl, Character: sc},
			End:   protocol.Position{Line: el, Character: ec},
		},
		Type: t,
	}
}

func lineLength(uint32) uint32 { return 20 }

func TestMerge(t *testing.T) {
	const a, b, c = 1, 2, 3

	tests := []struct {
		name  string
		spans []semtok.Span
		want  []semtok.Span
	}{
		{
			name:  "disjoint spans are sorted",
			spans: []semtok.Span{span(1, 0, 1, 3, a), span(0, 4, 0, 6, b), span(0, 0, 0, 3, c)},
			want:  []semtok.Span{span(0, 0, 0, 3, c), span(0, 4, 0, 6, b), span(1, 0, 1, 3, a)},
		},
		{
			name:  "nested span splits its parent",
			spans: []semtok.Span{span(0, 3, 0, 5, b), span(0, 0, 0, 10, a)},
			want:  []semtok.Span{span(0, 0, 0, 3, a), span(0, 3, 0, 5, b), span(0, 5, 0, 10, a)},
		},
		{
			name:  "nested span at the end",
			spans: []semtok.Span{span(0, 0, 0, 10, a), span(0, 6, 0, 10, b)},
			want:  []semtok.Span{span(0, 0, 0, 6, a), span(0, 6, 0, 10, b)},
		},
		{
			name:  "enclosing span sorted last wins",
			spans: []semtok.Span{span(0, 2, 0, 8, a), span(0, 2, 0, 4, b)},
			want:  []semtok.Span{span(0, 2, 0, 8, a)},
		},
		{
			name:  "identical ranges keep the last declared",
			spans: []semtok.Span{span(0, 2, 0, 8, a), span(0, 2, 0, 8, b)},
			want:  []semtok.Span{span(0, 2, 0, 8, b)},
		},
		{
			name: "escape splits its string",
			spans: []semtok.Span{
				span(0, 13, 0, 24, semtok.TypeString),
				span(0, 16, 0, 18, semtok.TypeString),
			},
			want: []semtok.Span{
				span(0, 13, 0, 16, semtok.TypeString),
				span(0, 16, 0, 18, semtok.TypeString),
				span(0, 18, 0, 24, semtok.TypeString),
			},
		},
		{
			name:  "partial overlap",
			spans: []semtok.Span{span(0, 0, 0, 6, a), span(0, 4, 0, 9, b)},
			want:  []semtok.Span{span(0, 0, 0, 4, a), span(0, 4, 0, 9, b)},
		},
		{
			name:  "deep nesting",
			spans: []semtok.Span{span(0, 0, 0, 12, a), span(0, 2, 0, 10, b), span(0, 4, 0, 6, c)},
			want: []semtok.Span{
				span(0, 0, 0, 2, a), span(0, 2, 0, 4, b), span(0, 4, 0, 6, c),
				span(0, 6, 0, 10, b), span(0, 10, 0, 12, a),
			},
		},
		{
			name:  "multi-line span is cut at the end of its line",
			spans: []semtok.Span{span(0, 5, 3, 2, a)},
			want:  []semtok.Span{span(0, 5, 0, 20, a)},
		},
		{
			name:  "zero-length spans are dropped",
			spans: []semtok.Span{span(0, 5, 0, 5, a), span(0, 25, 1, 0, b), span(1, 0, 1, 1, c)},
			want:  []semtok.Span{span(1, 0, 1, 1, c)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, semtok.Merge(tt.spans, lineLength))
		})
	}
}

func TestMergeNonOverlapping(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		var spans []semtok.Span
		for i := 0; i < 30; i++ {
			line := uint32(rnd.Intn(4))
			start := uint32(rnd.Intn(20))
			end := start + uint32(rnd.Intn(8))
			endLine := line
			if rnd.Intn(10) == 0 {
				endLine++
			}
			spans = append(spans, span(line, start, endLine, end, uint32(rnd.Intn(11))))
		}

		merged := semtok.Merge(spans, lineLength)
		for i, s := range merged {
			require.Equal(t, s.Range.Start.Line, s.Range.End.Line)
			require.Less(t, s.Range.Start.Character, s.Range.End.Character)
			if i == 0 {
				continue
			}
			prev := merged[i-1].Range
			if prev.End.Line == s.Range.Start.Line {
				require.LessOrEqual(t, prev.End.Character, s.Range.Start.Character, "round %d: %v", round, merged)
			} else {
				require.Less(t, prev.End.Line, s.Range.Start.Line)
			}
		}
	}
}

func TestEncode(t *testing.T) {
	data := semtok.Encode([]semtok.Span{
		span(0, 0, 0, 7, semtok.TypeKeyword),
		span(0, 8, 0, 11, semtok.TypeNumber),
		span(2, 4, 2, 8, semtok.TypeKeyword),
		span(2, 9, 2, 15, semtok.TypeType),
	})
	assert.Equal(t, []protocol.UInteger{
		0, 0, 7, semtok.TypeKeyword, 0,
		0, 8, 3, semtok.TypeNumber, 0,
		2, 4, 4, semtok.TypeKeyword, 0,
		0, 5, 6, semtok.TypeType, 0,
	}, data)
	assert.Empty(t, semtok.Encode(nil))
}

func TestTokens(t *testing.T) {
	parsers := parser.NewParsers(1)
	d, err := document.New(parsers, "file:///ws/Earthfile", "VERSION 0.8\nbuild:\n    RUN echo hi\n")
	require.NoError(t, err)
	defer d.Close()

	assert.Len(t, semtok.Legend.TokenTypes, 11)

	data := semtok.Tokens(d, nil)
	require.Zero(t, len(data)%5)
	assert.Equal(t, []protocol.UInteger{0, 0, 7, semtok.TypeKeyword, 0}, data[:5])

	var lines []uint32
	var line uint32
	for i := 0; i < len(data); i += 5 {
		line += data[i]
		lines = append(lines, line)
	}
	assert.Contains(t, lines, uint32(2), "shell fragment tokens")

	t.Run("range", func(t *testing.T) {
		r := protocol.Range{
			Start: protocol.Position{Line: 2, Character: 0},
			End:   protocol.Position{Line: 3, Character: 0},
		}
		data := semtok.Tokens(d, &r)
		require.NotEmpty(t, data)
		assert.Equal(t, protocol.UInteger(2), data[0])
	})

	t.Run("escape inside a string", func(t *testing.T) {
		if !slices.Contains(parser.Queries().EarthfileHighlights.CaptureNames(), "string.escape") {
			t.Skip("the Earthfile grammar defines no escape sequence")
		}
		d, err := document.New(parsers, "file:///ws/Earthfile", "VERSION 0.8\nARG greeting=\"hi\\\"there\"\n")
		require.NoError(t, err)
		defer d.Close()

		spans := semtok.Merge(semtok.Collect(d, nil), d.Lines().LineLength)
		assert.Subset(t, spans, []semtok.Span{
			span(1, 13, 1, 16, semtok.TypeString),
			span(1, 16, 1, 18, semtok.TypeString),
			span(1, 18, 1, 24, semtok.TypeString),
		})
	})
}
