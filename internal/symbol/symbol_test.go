package symbol_test

import (
	"testing"

	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/parser"
	"github.com/glehmann/earthlyls/internal/symbol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const earthfile = `VERSION 0.8
ARG --global REGISTRY=docker.io

build:
    FROM alpine
    ARG VERSION=1
    ENV HOME=/root
    SET VERSION=2

test:
    FROM +build
`

func TestDocument(t *testing.T) {
	parsers := parser.NewParsers(1)
	d, err := document.New(parsers, "file:///ws/Earthfile", earthfile)
	require.NoError(t, err)
	defer d.Close()

	symbols := symbol.Document(d)

	type sym struct {
		name      string
		kind      protocol.SymbolKind
		container string
		line      protocol.UInteger
	}
	var got []sym
	for _, s := range symbols {
		c := ""
		if s.ContainerName != nil {
			c = *s.ContainerName
		}
		assert.Equal(t, protocol.DocumentUri("file:///ws/Earthfile"), s.Location.URI)
		got = append(got, sym{s.Name, s.Kind, c, s.Location.Range.Start.Line})
	}

	assert.Equal(t, []sym{
		{"REGISTRY", protocol.SymbolKindVariable, "", 1},
		{"build", protocol.SymbolKindFunction, "", 3},
		{"VERSION", protocol.SymbolKindVariable, "build", 5},
		{"HOME", protocol.SymbolKindKey, "build", 6},
		{"VERSION", protocol.SymbolKindVariable, "build", 7},
		{"test", protocol.SymbolKindFunction, "", 9},
	}, got)
}
