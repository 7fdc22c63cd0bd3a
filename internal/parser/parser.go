package parser

import (
	"context"
	"sync"

	"github.com/glehmann/earthlyls/bindings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"gitlab.com/tozd/go/errors"
)

var (
	earthfileLang = sitter.NewLanguage(bindings.Language())
	bashLang      = bash.GetLanguage()
)

// Earthfile returns the grammar of the primary document language.
func Earthfile() *sitter.Language { return earthfileLang }

// Bash returns the grammar used for shell fragments embedded in Earthfiles.
func Bash() *sitter.Language { return bashLang }

// ErrClosed is returned by the parses started after Close.
var ErrClosed = errors.Base("parser pool closed")

// Pool maintains a fixed set of tree-sitter parsers for one language.
// A parser is taken from the pool for the duration of a single parse.
type Pool struct {
	pool chan *sitter.Parser
	lang *sitter.Language

	mu     sync.Mutex
	closed bool
}

// NewPool creates a Pool with n parsers for lang.
func NewPool(n int, lang *sitter.Language) *Pool {
	if n < 1 {
		n = 1
	}
	pp := &Pool{
		pool: make(chan *sitter.Parser, n),
		lang: lang,
	}
	for i := 0; i < n; i++ {
		p := sitter.NewParser()
		p.SetLanguage(lang)
		pp.pool <- p
	}
	return pp
}

// Language returns the grammar the pool parses.
func (pp *Pool) Language() *sitter.Language { return pp.lang }

// Parse parses content, reusing the unchanged subtrees of old when it is
// not nil. old must already carry the edits describing content.
func (pp *Pool) Parse(ctx context.Context, old *sitter.Tree, content []byte) (*sitter.Tree, error) {
	p, err := pp.acquire()
	if err != nil {
		return nil, err
	}
	defer pp.release(p)

	tree, err := p.ParseCtx(ctx, old, content)
	if err != nil {
		return nil, errors.Errorf("parse: %w", err)
	}
	return tree, nil
}

// ParseRanges parses only the given byte ranges of content. Nodes of the
// returned tree keep their positions relative to the whole content.
func (pp *Pool) ParseRanges(ctx context.Context, content []byte, ranges []sitter.Range) (*sitter.Tree, error) {
	if len(ranges) == 0 {
		return nil, errors.New("no range to parse")
	}
	p, err := pp.acquire()
	if err != nil {
		return nil, err
	}
	defer pp.release(p)

	p.SetIncludedRanges(ranges)
	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, errors.Errorf("parse ranges: %w", err)
	}
	return tree, nil
}

func (pp *Pool) acquire() (*sitter.Parser, error) {
	p, ok := <-pp.pool
	if !ok {
		return nil, ErrClosed
	}
	return p, nil
}

func (pp *Pool) release(p *sitter.Parser) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	if pp.closed {
		p.Close()
		return
	}
	pp.pool <- p
}

// Close releases all parsers in the pool. Parsers in use are released when
// their parse ends.
func (pp *Pool) Close() {
	pp.mu.Lock()
	if pp.closed {
		pp.mu.Unlock()
		return
	}
	pp.closed = true
	close(pp.pool)
	pp.mu.Unlock()

	for p := range pp.pool {
		p.Close()
	}
}

// Parsers groups the pools used by documents.
type Parsers struct {
	Earthfile *Pool
	Bash      *Pool
}

// NewParsers creates one pool per grammar, each holding n parsers.
func NewParsers(n int) *Parsers {
	return &Parsers{
		Earthfile: NewPool(n, earthfileLang),
		Bash:      NewPool(n, bashLang),
	}
}

// Close releases every pool.
func (ps *Parsers) Close() {
	ps.Earthfile.Close()
	ps.Bash.Close()
}
