package document_test

import (
	"testing"

	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
)

const (
	shortEarthfile = "VERSION 0.8\n"
	fromAlpine     = "FROM alpine\n"
	earthfileTree  = "(source_file (version_command version: (version_major_minor)) (from_command (image_spec name: (image_name))))"
	uri            = "file:///work/Earthfile"
)

var parsers = parser.NewParsers(2)

func at(line, char uint32) protocol.Position {
	return protocol.Position{Line: line, Character: char}
}

func span(sl, sc, el, ec uint32) protocol.Range {
	return protocol.Range{Start: at(sl, sc), End: at(el, ec)}
}

func newDoc(t *testing.T, text string) *document.Document {
	t.Helper()
	d, err := document.New(parsers, uri, text)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

// assertCoherent checks that the tree of d covers exactly its text and
// matches a parse from scratch.
func assertCoherent(t *testing.T, d *document.Document) {
	t.Helper()
	root := d.Root()
	require.Equal(t, uint32(len(d.Source())), root.EndByte())
	require.LessOrEqual(t, root.StartByte(), root.EndByte())
	assert.Equal(t, d.Text()[root.StartByte():], d.NodeText(root))
	fresh := newDoc(t, d.Text())
	assert.Equal(t, fresh.String(), d.String())
}

func TestNew(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		d := newDoc(t, "")
		assert.Equal(t, "", d.Text())
		assert.Equal(t, "(source_file)", d.String())
	})

	t.Run("from text", func(t *testing.T) {
		d := newDoc(t, shortEarthfile+fromAlpine)
		assert.Equal(t, shortEarthfile+fromAlpine, d.Text())
		assert.Equal(t, 3, d.Lines().Count())
		assert.Equal(t, earthfileTree, d.String())
	})
}

func TestApplyEdit(t *testing.T) {
	t.Run("at end of file", func(t *testing.T) {
		d := newDoc(t, shortEarthfile)
		require.NoError(t, d.ApplyEdit(span(1, 0, 1, 0), fromAlpine))
		assert.Equal(t, shortEarthfile+fromAlpine, d.Text())
		assert.Equal(t, earthfileTree, d.String())
	})

	t.Run("matches a fresh parse", func(t *testing.T) {
		d := newDoc(t, shortEarthfile+fromAlpine)
		require.NoError(t, d.ApplyEdit(span(2, 0, 2, 0), "\nFROM +rust\n"))

		fresh := newDoc(t, shortEarthfile+fromAlpine+"\nFROM +rust\n")
		assert.Equal(t, fresh.Text(), d.Text())
		assert.Equal(t, fresh.String(), d.String())
		assertCoherent(t, d)
	})

	t.Run("no-op edit is idempotent", func(t *testing.T) {
		d := newDoc(t, shortEarthfile+fromAlpine)
		before := d.String()
		require.NoError(t, d.ApplyEdit(span(1, 2, 1, 2), ""))
		require.NoError(t, d.ApplyEdit(span(1, 2, 1, 2), ""))
		assert.Equal(t, before, d.String())
		assert.Equal(t, shortEarthfile+fromAlpine, d.Text())
	})

	t.Run("replacement and deletion", func(t *testing.T) {
		d := newDoc(t, shortEarthfile+fromAlpine)
		steps := []struct {
			r    protocol.Range
			text string
			want string
		}{
			{span(1, 5, 1, 11), "ubuntu", "VERSION 0.8\nFROM ubuntu\n"},
			{span(0, 8, 0, 11), "0.7", "VERSION 0.7\nFROM ubuntu\n"},
			{span(1, 0, 2, 0), "", "VERSION 0.7\n"},
			{span(1, 0, 1, 0), "build:\n    RUN echo é\n", "VERSION 0.7\nbuild:\n    RUN echo é\n"},
			{span(2, 13, 2, 14), "ü", "VERSION 0.7\nbuild:\n    RUN echo ü\n"},
			{span(2, 13, 2, 13), "😀", "VERSION 0.7\nbuild:\n    RUN echo 😀ü\n"},
			{span(2, 15, 2, 16), "x", "VERSION 0.7\nbuild:\n    RUN echo 😀x\n"},
			{span(2, 13, 2, 15), "", "VERSION 0.7\nbuild:\n    RUN echo x\n"},
		}
		for _, s := range steps {
			require.NoError(t, d.ApplyEdit(s.r, s.text))
			assert.Equal(t, s.want, d.Text())
			assertCoherent(t, d)
			fresh := newDoc(t, s.want)
			assert.Equal(t, fresh.String(), d.String())
		}
	})

	t.Run("failed parse leaves the document unchanged", func(t *testing.T) {
		closed := parser.NewParsers(1)
		d, err := document.New(closed, uri, shortEarthfile+fromAlpine)
		require.NoError(t, err)
		t.Cleanup(d.Close)
		closed.Close()

		err = d.ApplyEdit(span(1, 5, 1, 11), "ubuntu")
		assert.True(t, errors.Is(err, parser.ErrClosed))
		assert.Equal(t, shortEarthfile+fromAlpine, d.Text())
		assert.Equal(t, earthfileTree, d.String())
		assertCoherent(t, d)
	})

	t.Run("incoherent edit", func(t *testing.T) {
		d := newDoc(t, shortEarthfile)
		err := d.ApplyEdit(span(0, 0, 5, 0), "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, document.ErrIncoherentEdit))
		assert.Equal(t, "", d.Text())
		assert.Equal(t, "(source_file)", d.String())
	})
}

func TestApplyFullText(t *testing.T) {
	d := newDoc(t, shortEarthfile)
	require.NoError(t, d.ApplyFullText(shortEarthfile+fromAlpine))
	assert.Equal(t, earthfileTree, d.String())
}

func TestFragments(t *testing.T) {
	text := "VERSION 0.8\nbuild:\n    FROM alpine\n    RUN echo hello\n"
	d := newDoc(t, text)

	fragments := d.Fragments()
	require.Len(t, fragments, 1)
	f := fragments[0]
	assert.Equal(t, "program", f.Tree.RootNode().Type())
	assert.Contains(t, text[f.Range.StartByte:f.Range.EndByte], "echo hello")

	matches := d.EmbeddedMatches(parser.Queries().BashHighlights, nil)
	var names []string
	for _, m := range matches {
		for _, c := range m.Captures {
			if c.Name == "function.call" {
				names = append(names, d.NodeText(c.Node))
			}
		}
	}
	assert.Contains(t, names, "echo")

	t.Run("follow edits", func(t *testing.T) {
		require.NoError(t, d.ApplyEdit(span(3, 0, 4, 0), ""))
		assert.Empty(t, d.Fragments())

		require.NoError(t, d.ApplyEdit(span(3, 0, 3, 0), "    RUN ls\n    RUN pwd\n"))
		require.Len(t, d.Fragments(), 2)
		assert.Less(t, d.Fragments()[0].Range.StartByte, d.Fragments()[1].Range.StartByte)
	})
}

func TestNodeAt(t *testing.T) {
	d := newDoc(t, "VERSION 0.8\nbuild:\n    FROM +base\n")
	n := d.NodeAt(at(2, 11))
	require.NotNil(t, n)
	assert.Equal(t, "base", d.NodeText(n))
	assert.Equal(t, span(2, 10, 2, 14), d.Range(n))
	assert.True(t, d.Contains(n, at(2, 14)))
	assert.False(t, d.Contains(n, at(2, 9)))
}
