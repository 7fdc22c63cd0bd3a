// Package document keeps the text of an Earthfile consistent with its syntax
// tree and with the trees of the shell fragments embedded in it.
package document

import (
	"context"

	"github.com/glehmann/earthlyls/internal/parser"
	"github.com/glehmann/earthlyls/internal/sitteradapter"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
)

// ErrIncoherentEdit is returned when an edit range does not exist in the
// document text. The document is reparsed from scratch in that case.
var ErrIncoherentEdit = errors.Base("edit range does not match document")

var log = commonlog.GetLogger("earthlyls.document")

// Fragment is a shell snippet of the document parsed with the bash grammar.
type Fragment struct {
	Range sitter.Range
	Tree  *sitter.Tree
}

// Document is the in-memory state of one Earthfile.
type Document struct {
	URI     protocol.DocumentUri
	Version protocol.Integer
	// Open is true while the editor owns the document content.
	Open bool
	// Diagnostics holds the last published diagnostics.
	Diagnostics []protocol.Diagnostic

	parsers   *parser.Parsers
	text      []byte
	lines     *sitteradapter.Lines
	tree      *sitter.Tree
	fragments []Fragment
}

// New parses text and returns the resulting document.
func New(parsers *parser.Parsers, uri protocol.DocumentUri, text string) (*Document, error) {
	d := &Document{URI: uri, parsers: parsers}
	if err := d.ApplyFullText(text); err != nil {
		return nil, err
	}
	return d, nil
}

// Text returns the current content of the document.
func (d *Document) Text() string { return string(d.text) }

// Source returns the document content without copying. The slice must not
// be modified.
func (d *Document) Source() []byte { return d.text }

// Lines returns the line index of the current content.
func (d *Document) Lines() *sitteradapter.Lines { return d.lines }

// Root returns the root node of the primary tree.
func (d *Document) Root() *sitter.Node { return d.tree.RootNode() }

// Fragments returns the embedded shell fragments in document order.
func (d *Document) Fragments() []Fragment { return d.fragments }

// ApplyFullText replaces the whole content and reparses it from scratch.
func (d *Document) ApplyFullText(text string) error {
	tree, err := d.parsers.Earthfile.Parse(context.Background(), nil, []byte(text))
	if err != nil {
		return errors.WithDetails(err, "uri", d.URI)
	}
	d.replace([]byte(text), tree)
	return d.RefreshEmbeddedFragments()
}

// ApplyEdit replaces the text in r by text and incrementally reparses the
// document. If r is not a valid range of the current text, the edit is
// applied to the clamped range, the document is parsed from scratch and
// ErrIncoherentEdit is returned. A failed incremental parse also falls back
// to a parse from scratch; when that fails too, the document is unchanged.
func (d *Document) ApplyEdit(r protocol.Range, text string) error {
	edit, ok := d.lines.Edit(r, text)

	next := make([]byte, 0, len(d.text)-int(edit.OldEndIndex-edit.StartIndex)+len(text))
	next = append(next, d.text[:edit.StartIndex]...)
	next = append(next, text...)
	next = append(next, d.text[edit.OldEndIndex:]...)

	if !ok {
		log.Warning("incoherent edit, reparsing", "uri", d.URI, "range", r)
		if err := d.ApplyFullText(string(next)); err != nil {
			return err
		}
		return errors.WithDetails(ErrIncoherentEdit, "uri", d.URI, "range", r)
	}

	// the current tree stays untouched until the new one is ready
	edited := d.tree.Copy()
	edited.Edit(edit)
	tree, err := d.parsers.Earthfile.Parse(context.Background(), edited, next)
	edited.Close()
	if err != nil {
		log.Warning("incremental parse failed, reparsing", "uri", d.URI, "error", err)
		return d.ApplyFullText(string(next))
	}
	d.replace(next, tree)
	return d.RefreshEmbeddedFragments()
}

func (d *Document) replace(text []byte, tree *sitter.Tree) {
	if d.tree != nil {
		d.tree.Close()
	}
	d.text = text
	d.lines = sitteradapter.NewLines(text)
	d.tree = tree
}

// RefreshEmbeddedFragments locates the shell fragments of the primary tree
// and parses each of them from scratch.
func (d *Document) RefreshEmbeddedFragments() error {
	d.closeFragments()
	for _, n := range parser.Queries().Fragments.Nodes(d.tree.RootNode(), d.text) {
		if n.StartByte() == n.EndByte() {
			continue
		}
		r := sitter.Range{
			StartPoint: n.StartPoint(),
			EndPoint:   n.EndPoint(),
			StartByte:  n.StartByte(),
			EndByte:    n.EndByte(),
		}
		tree, err := d.parsers.Bash.ParseRanges(context.Background(), d.text, []sitter.Range{r})
		if err != nil {
			return errors.WithDetails(err, "uri", d.URI)
		}
		d.fragments = append(d.fragments, Fragment{Range: r, Tree: tree})
	}
	return nil
}

func (d *Document) closeFragments() {
	for _, f := range d.fragments {
		f.Tree.Close()
	}
	d.fragments = nil
}

// Close releases the trees of the document.
func (d *Document) Close() {
	d.closeFragments()
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
}

// NodeText returns the text covered by n.
func (d *Document) NodeText(n *sitter.Node) string {
	start, end := n.StartByte(), n.EndByte()
	if end > uint32(len(d.text)) {
		end = uint32(len(d.text))
	}
	if start > end {
		return ""
	}
	return string(d.text[start:end])
}

// Range returns the editor range covered by n.
func (d *Document) Range(n *sitter.Node) protocol.Range {
	return d.lines.Range(n)
}

// String returns the s-expression of the primary tree.
func (d *Document) String() string {
	return d.tree.RootNode().String()
}

func (d *Document) span(r *protocol.Range) *[2]sitter.Point {
	if r == nil {
		return nil
	}
	return &[2]sitter.Point{d.lines.Point(r.Start), d.lines.Point(r.End)}
}

// Matches runs q on the primary tree. When r is not nil, only nodes
// intersecting r are matched.
func (d *Document) Matches(q *parser.Query, r *protocol.Range) []parser.Match {
	return q.Matches(d.tree.RootNode(), d.text, d.span(r))
}

// Captures returns every node captured by q on the primary tree.
func (d *Document) Captures(q *parser.Query) []*sitter.Node {
	return q.Nodes(d.tree.RootNode(), d.text)
}

// EmbeddedMatches runs q on every fragment tree, in document order.
func (d *Document) EmbeddedMatches(q *parser.Query, r *protocol.Range) []parser.Match {
	span := d.span(r)
	var matches []parser.Match
	for _, f := range d.fragments {
		matches = append(matches, q.Matches(f.Tree.RootNode(), d.text, span)...)
	}
	return matches
}

// NodeAt returns the smallest named node of the primary tree spanning pos.
func (d *Document) NodeAt(pos protocol.Position) *sitter.Node {
	pt := d.lines.Point(pos)
	return d.tree.RootNode().NamedDescendantForPointRange(pt, pt)
}

// Contains reports whether pos lies inside the editor range of n. A cursor
// placed right after the node is inside.
func (d *Document) Contains(n *sitter.Node, pos protocol.Position) bool {
	r := d.Range(n)
	return !Before(pos, r.Start) && !Before(r.End, pos)
}

// Before reports whether a is strictly before b.
func Before(a, b protocol.Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Character < b.Character)
}
