// Package resolver maps Earthfile target references to the targets they
// denote, across documents.
package resolver

import (
	"path"
	"slices"
	"strings"

	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/manager"
	"github.com/glehmann/earthlyls/internal/parser"
	"github.com/glehmann/earthlyls/internal/uri"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
)

var log = commonlog.GetLogger("earthlyls.resolver")

// Reference is a use of a target or function, like `+build` or
// `./lib+test`.
type Reference struct {
	URI protocol.DocumentUri
	// Qualifier is the earthfile part of the reference, nil when the
	// reference points to its own document.
	Qualifier *string
	Name      string
	// Range covers the whole reference.
	Range protocol.Range
}

// Definition is the name of a target or function declaration.
type Definition struct {
	URI   protocol.DocumentUri
	Name  string
	Range protocol.Range
}

// References returns every reference of d, in document order.
func References(d *document.Document) []Reference {
	var refs []Reference
	for _, m := range d.Matches(parser.Queries().References, nil) {
		if ref, ok := reference(d, m); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func reference(d *document.Document, m parser.Match) (Reference, bool) {
	name := m.Capture(parser.CaptureName)
	node := m.Capture(parser.CaptureRef)
	if name == nil || node == nil {
		return Reference{}, false
	}
	ref := Reference{URI: d.URI, Name: d.NodeText(name), Range: d.Range(node)}
	if q := m.Capture(parser.CaptureEarthfile); q != nil {
		s := d.NodeText(q)
		ref.Qualifier = &s
	}
	return ref, true
}

// ReferenceAt returns the reference of d under pos.
func ReferenceAt(d *document.Document, pos protocol.Position) (Reference, bool) {
	for _, m := range d.Matches(parser.Queries().References, nil) {
		if n := m.Capture(parser.CaptureRef); n != nil && d.Contains(n, pos) {
			return reference(d, m)
		}
	}
	return Reference{}, false
}

// Definitions returns the targets and functions declared in d.
func Definitions(d *document.Document) []Definition {
	var defs []Definition
	for _, n := range d.Captures(parser.Queries().Targets) {
		defs = append(defs, Definition{URI: d.URI, Name: d.NodeText(n), Range: d.Range(n)})
	}
	return defs
}

// DefinitionAt returns the declaration of d whose name is under pos.
func DefinitionAt(d *document.Document, pos protocol.Position) (Definition, bool) {
	for _, n := range d.Captures(parser.Queries().Targets) {
		if d.Contains(n, pos) {
			return Definition{URI: d.URI, Name: d.NodeText(n), Range: d.Range(n)}, true
		}
	}
	return Definition{}, false
}

// Resolver resolves references against the documents of a DocumentSet.
type Resolver struct {
	docs           *manager.DocumentSet
	definitionFile string
}

func New(docs *manager.DocumentSet, definitionFile string) *Resolver {
	return &Resolver{docs: docs, definitionFile: definitionFile}
}

// globEscaper quotes the glob metacharacters of a literal path.
var globEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
)

// Pattern returns the glob pattern of the documents a qualifier written in
// origin points to. The pattern is normalized without touching the file
// system. The glob characters of the qualifier are kept, those of the origin
// directory match literally.
func (r *Resolver) Pattern(origin protocol.DocumentUri, qualifier string) (string, error) {
	p, err := uri.ToPath(origin)
	if err != nil {
		return "", err
	}
	if path.IsAbs(qualifier) {
		return path.Join(qualifier, r.definitionFile), nil
	}
	return path.Join(globEscaper.Replace(path.Dir(p)), qualifier, r.definitionFile), nil
}

// Candidates returns the documents ref may point to, sorted by URI.
func (r *Resolver) Candidates(ref Reference) ([]protocol.DocumentUri, error) {
	if ref.Qualifier == nil {
		return []protocol.DocumentUri{ref.URI}, nil
	}
	pattern, err := r.Pattern(ref.URI, *ref.Qualifier)
	if err != nil {
		return nil, err
	}
	if !doublestar.ValidatePattern(pattern) {
		log.Debug("invalid earthfile pattern", "pattern", pattern)
		return nil, nil
	}

	var candidates []protocol.DocumentUri
	for _, u := range r.docs.URIs() {
		p, err := uri.ToPath(u)
		if err != nil {
			continue
		}
		if ok, _ := doublestar.Match(pattern, p); ok {
			candidates = append(candidates, u)
		}
	}
	return candidates, nil
}

// Resolve returns every declaration ref denotes, ordered by URI then by
// position. A glob qualifier may select several documents, so there may be
// several definitions.
func (r *Resolver) Resolve(ref Reference) ([]Definition, error) {
	candidates, err := r.Candidates(ref)
	if err != nil {
		return nil, err
	}

	var defs []Definition
	for _, u := range candidates {
		err := r.docs.With(u, func(d *document.Document) error {
			for _, def := range Definitions(d) {
				if def.Name == ref.Name {
					defs = append(defs, def)
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, manager.ErrUnknownDocument) {
			return nil, err
		}
	}
	return defs, nil
}

// FindReferences returns every reference of the set resolving to def,
// ordered by URI then by position.
func (r *Resolver) FindReferences(def Definition) ([]Reference, error) {
	var all []Reference
	err := r.docs.Range(func(d *document.Document) error {
		for _, ref := range References(d) {
			if ref.Name == def.Name {
				all = append(all, ref)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var refs []Reference
	for _, ref := range all {
		candidates, err := r.Candidates(ref)
		if errors.Is(err, uri.ErrInvalidURI) {
			log.Debug("skipping reference", "uri", ref.URI, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		if slices.Contains(candidates, def.URI) {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}
