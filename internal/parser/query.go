package parser

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("earthlyls.parser")

// Query is a compiled tree-sitter query with its capture names resolved once.
type Query struct {
	query *sitter.Query
	names []string
}

// Capture is a node captured by a query match.
type Capture struct {
	Name string
	Node *sitter.Node
}

// Match is one match of a query pattern.
type Match struct {
	Pattern  uint16
	Captures []Capture
}

// Capture returns the first node captured under name, or nil.
func (m Match) Capture(name string) *sitter.Node {
	for _, c := range m.Captures {
		if c.Name == name {
			return c.Node
		}
	}
	return nil
}

// MustCompile compiles source for lang and panics on failure. Queries are
// fixed strings owned by this package, so a failure is a programming error.
func MustCompile(lang *sitter.Language, source string) *Query {
	q, err := sitter.NewQuery([]byte(source), lang)
	if err != nil {
		panic(fmt.Sprintf("failed to compile query: %v\n%s", err, source))
	}
	names := make([]string, q.CaptureCount())
	for i := range names {
		names[i] = q.CaptureNameForId(uint32(i))
	}
	return &Query{query: q, names: names}
}

// CompileHighlights compiles a highlight query made of blank line separated
// blocks. Blocks naming nodes that lang does not define are left out, so a
// newer or older grammar only loses the highlights it cannot express. The
// skipped blocks are returned.
func CompileHighlights(lang *sitter.Language, source string) (*Query, []string) {
	var kept, skipped []string
	for _, block := range strings.Split(source, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		q, err := sitter.NewQuery([]byte(block), lang)
		if err != nil {
			log.Warning("skipping highlight pattern", "pattern", block, "error", err)
			skipped = append(skipped, block)
			continue
		}
		q.Close()
		kept = append(kept, block)
	}
	return MustCompile(lang, strings.Join(kept, "\n\n")), skipped
}

// CaptureNames returns the capture names of the query, indexed by capture id.
func (q *Query) CaptureNames() []string {
	return q.names
}

// Matches runs the query on root and returns every match with predicates
// applied. When span is not nil, only nodes intersecting the point range
// span[0]..span[1] are considered.
func (q *Query) Matches(root *sitter.Node, source []byte, span *[2]sitter.Point) []Match {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	if span != nil {
		qc.SetPointRange(span[0], span[1])
	}
	qc.Exec(q.query, root)

	var matches []Match
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, source)
		if len(m.Captures) == 0 {
			continue
		}
		match := Match{Pattern: m.PatternIndex, Captures: make([]Capture, 0, len(m.Captures))}
		for _, c := range m.Captures {
			match.Captures = append(match.Captures, Capture{Name: q.names[c.Index], Node: c.Node})
		}
		matches = append(matches, match)
	}
	return matches
}

// Nodes returns every captured node of every match, in match order.
func (q *Query) Nodes(root *sitter.Node, source []byte) []*sitter.Node {
	var nodes []*sitter.Node
	for _, m := range q.Matches(root, source, nil) {
		for _, c := range m.Captures {
			nodes = append(nodes, c.Node)
		}
	}
	return nodes
}
