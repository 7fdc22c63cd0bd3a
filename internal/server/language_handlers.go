package server

import (
	"slices"

	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/semtok"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentHover describes the innermost command under the cursor.
func (s *Server) textDocumentHover(
	context *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	release, err := s.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	var description string
	err = s.withDocument(params.TextDocument.URI, func(d *document.Document) error {
		pt := d.Lines().Point(params.Position)
		for n := d.Root().DescendantForPointRange(pt, pt); n != nil; n = n.Parent() {
			if desc, ok := descriptions[n.Type()]; ok {
				description = desc
				break
			}
		}
		return nil
	})
	if err != nil || description == "" {
		return nil, err
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: description,
		},
	}, nil
}

// textDocumentCompletion offers the command keywords where a new statement
// can start.
func (s *Server) textDocumentCompletion(
	context *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	release, err := s.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	var statementStart bool
	err = s.withDocument(params.TextDocument.URI, func(d *document.Document) error {
		pt := d.Lines().Point(params.Position)
		if pt.Column == 0 {
			pt.Column = 1
		}
		n := d.Root().DescendantForPointRange(pt, pt)
		for !n.IsNamed() && n.Parent() != nil {
			n = n.Parent()
		}
		statementStart = acceptsStatement(n)
		return nil
	})
	if err != nil || !statementStart {
		return nil, err
	}

	kind := protocol.CompletionItemKindKeyword
	items := make([]protocol.CompletionItem, 0, len(commandKeywords))
	for _, k := range commandKeywords {
		items = append(items, protocol.CompletionItem{Label: k, Kind: &kind})
	}
	return items, nil
}

func acceptsStatement(n *sitter.Node) bool {
	switch n.Type() {
	case "target", "block", "source_file":
		return n.Parent() == nil
	case "ERROR":
		if n.ChildCount() == 0 {
			return true
		}
		return !slices.Contains(commandKeywords, n.Child(0).Type())
	}
	return false
}

func (s *Server) textDocumentSemanticTokensFull(
	context *glsp.Context,
	params *protocol.SemanticTokensParams,
) (*protocol.SemanticTokens, error) {
	return s.semanticTokens(params.TextDocument.URI, nil)
}

func (s *Server) textDocumentSemanticTokensRange(
	context *glsp.Context,
	params *protocol.SemanticTokensRangeParams,
) (any, error) {
	return s.semanticTokens(params.TextDocument.URI, &params.Range)
}

func (s *Server) semanticTokens(uri protocol.DocumentUri, r *protocol.Range) (*protocol.SemanticTokens, error) {
	release, err := s.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	data := []protocol.UInteger{}
	err = s.withDocument(uri, func(d *document.Document) error {
		data = append(data, semtok.Tokens(d, r)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &protocol.SemanticTokens{Data: data}, nil
}
