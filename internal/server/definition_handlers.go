package server

import (
	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/resolver"
	"github.com/glehmann/earthlyls/internal/symbol"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDefinition(
	context *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	release, err := s.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		ref resolver.Reference
		ok  bool
	)
	err = s.withDocument(params.TextDocument.URI, func(d *document.Document) error {
		ref, ok = resolver.ReferenceAt(d, params.Position)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	// the origin document lock is released: a reference may point to its
	// own document
	defs, err := s.resolver.Resolve(ref)
	if err != nil {
		return nil, err
	}
	links := make([]protocol.LocationLink, 0, len(defs))
	for _, def := range defs {
		links = append(links, protocol.LocationLink{
			OriginSelectionRange: &ref.Range,
			TargetURI:            def.URI,
			TargetRange:          def.Range,
			TargetSelectionRange: def.Range,
		})
	}
	return links, nil
}

// textDocumentReferences answers for a cursor placed either on a reference or
// on the name of a declaration.
func (s *Server) textDocumentReferences(
	context *glsp.Context,
	params *protocol.ReferenceParams,
) ([]protocol.Location, error) {
	release, err := s.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		ref    resolver.Reference
		def    resolver.Definition
		isRef  bool
		isDecl bool
	)
	err = s.withDocument(params.TextDocument.URI, func(d *document.Document) error {
		ref, isRef = resolver.ReferenceAt(d, params.Position)
		if !isRef {
			def, isDecl = resolver.DefinitionAt(d, params.Position)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var defs []resolver.Definition
	switch {
	case isRef:
		defs, err = s.resolver.Resolve(ref)
		if err != nil {
			return nil, err
		}
	case isDecl:
		defs = []resolver.Definition{def}
	default:
		return nil, nil
	}

	var locations []protocol.Location
	for _, def := range defs {
		if params.Context.IncludeDeclaration {
			locations = append(locations, protocol.Location{URI: def.URI, Range: def.Range})
		}
		refs, err := s.resolver.FindReferences(def)
		if err != nil {
			return nil, err
		}
		for _, r := range refs {
			locations = append(locations, protocol.Location{URI: r.URI, Range: r.Range})
		}
	}
	return locations, nil
}

func (s *Server) textDocumentDocumentSymbol(
	context *glsp.Context,
	params *protocol.DocumentSymbolParams,
) (any, error) {
	release, err := s.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	var symbols []protocol.SymbolInformation
	err = s.withDocument(params.TextDocument.URI, func(d *document.Document) error {
		symbols = symbol.Document(d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return symbols, nil
}

func (s *Server) workspaceSymbol(
	context *glsp.Context,
	params *protocol.WorkspaceSymbolParams,
) ([]protocol.SymbolInformation, error) {
	release, err := s.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	return s.manager.Index.Search(params.Query)
}
