// Package symbol extracts the symbols declared by an Earthfile.
package symbol

import (
	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/parser"

	sitter "github.com/smacker/go-tree-sitter"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Document returns the targets, ARG, ENV and SET names of d in document
// order. Variables carry the name of their enclosing target, if any.
func Document(d *document.Document) []protocol.SymbolInformation {
	var symbols []protocol.SymbolInformation
	for _, m := range d.Matches(parser.Queries().Symbols, nil) {
		n := m.Capture(parser.CaptureSymbol)
		if n == nil {
			continue
		}
		si := protocol.SymbolInformation{
			Name: d.NodeText(n),
			Kind: kind(m.Pattern),
			Location: protocol.Location{
				URI:   d.URI,
				Range: d.Range(n),
			},
		}
		if m.Pattern != parser.SymbolTarget {
			si.ContainerName = container(d, n)
		}
		symbols = append(symbols, si)
	}
	return symbols
}

func kind(pattern uint16) protocol.SymbolKind {
	switch pattern {
	case parser.SymbolTarget:
		return protocol.SymbolKindFunction
	case parser.SymbolEnv:
		return protocol.SymbolKindKey
	default:
		return protocol.SymbolKindVariable
	}
}

func container(d *document.Document, n *sitter.Node) *string {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() != "target" {
			continue
		}
		name := p.ChildByFieldName("name")
		if name == nil {
			return nil
		}
		s := d.NodeText(name)
		return &s
	}
	return nil
}
