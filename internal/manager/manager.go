// Package manager owns the documents of the workspace and keeps them, and
// the workspace symbol index, in sync with the editor and the file system.
package manager

import (
	"path"
	"sort"
	"sync"

	"github.com/glehmann/earthlyls/internal/config"
	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/index"
	"github.com/glehmann/earthlyls/internal/parser"
	"github.com/glehmann/earthlyls/internal/scanner"
	"github.com/glehmann/earthlyls/internal/symbol"
	"github.com/glehmann/earthlyls/internal/uri"

	"github.com/spf13/afero"
	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
)

var log = commonlog.GetLogger("earthlyls.manager")

// Root is a workspace folder scanned for documents.
type Root struct {
	Name string
	Path string
}

// Change is one content change of a document. A nil Range replaces the whole
// content.
type Change struct {
	Range *protocol.Range
	Text  string
}

// Manager ties the DocumentSet to the parsers, the file system and the
// symbol index.
type Manager struct {
	Documents *DocumentSet
	Index     *index.Index

	cfg     config.Config
	fs      afero.Fs
	parsers *parser.Parsers
	roots   []Root
}

// New creates a Manager reading files from fsys.
func New(fsys afero.Fs, cfg config.Config) (*Manager, error) {
	idx, err := index.New()
	if err != nil {
		return nil, err
	}
	return &Manager{
		Documents: NewDocumentSet(),
		Index:     idx,
		cfg:       cfg,
		fs:        fsys,
		parsers:   parser.NewParsers(cfg.ParserPoolSize),
	}, nil
}

// Config returns the configuration of the manager.
func (m *Manager) Config() config.Config { return m.cfg }

// SetRoots records the workspace folders. It must be called once, before
// Scan.
func (m *Manager) SetRoots(roots []Root) {
	m.roots = append([]Root(nil), roots...)
}

// Roots returns the workspace folders.
func (m *Manager) Roots() []Root { return m.roots }

// Scan loads every definition file found under the workspace roots. Documents
// already open in the editor are left untouched. It returns the URIs loaded,
// sorted.
func (m *Manager) Scan() []protocol.DocumentUri {
	var (
		mu     sync.Mutex
		loaded []protocol.DocumentUri
	)
	for _, root := range m.roots {
		n := scanner.Scan(m.fs, root.Path, scanner.Options{
			Pattern:    "**/" + m.cfg.DefinitionFile,
			IgnoreDirs: m.cfg.IgnoreDirs,
			Workers:    m.cfg.ScanWorkers,
		}, func(p string, content []byte) {
			u := uri.FromPath(p)
			if err := m.load(u, string(content)); err != nil {
				log.Error("failed to load document", "uri", u, "error", err)
				return
			}
			mu.Lock()
			loaded = append(loaded, u)
			mu.Unlock()
		})
		log.Info("scanned workspace", "name", root.Name, "root", root.Path, "documents", n)
	}
	sort.Strings(loaded)
	return loaded
}

// load stores content as the state of u on disk, unless the editor owns u.
func (m *Manager) load(u protocol.DocumentUri, content string) error {
	return m.Documents.UpsertFunc(u,
		func() (*document.Document, error) {
			return document.New(m.parsers, u, content)
		},
		func(d *document.Document) error {
			if d.Open {
				return nil
			}
			return d.ApplyFullText(content)
		},
		m.reindex)
}

// Open stores the content sent by the editor and marks the document open.
func (m *Manager) Open(u protocol.DocumentUri, version protocol.Integer, text string) error {
	return m.Documents.UpsertFunc(u,
		func() (*document.Document, error) {
			d, err := document.New(m.parsers, u, text)
			if err != nil {
				return nil, err
			}
			d.Open = true
			d.Version = version
			return d, nil
		},
		func(d *document.Document) error {
			d.Open = true
			d.Version = version
			return d.ApplyFullText(text)
		},
		m.reindex)
}

// Change applies the changes of one editor notification, in order. A
// notification whose version is not newer than the document is dropped.
func (m *Manager) Change(u protocol.DocumentUri, version protocol.Integer, changes []Change) error {
	apply := func(d *document.Document) error {
		if d.Open && version <= d.Version {
			log.Warning("dropping stale change", "uri", u, "version", version, "current", d.Version)
			return nil
		}
		d.Open = true
		d.Version = version
		defer m.reindex(d)
		for _, c := range changes {
			if c.Range == nil {
				if err := d.ApplyFullText(c.Text); err != nil {
					return err
				}
				continue
			}
			err := d.ApplyEdit(*c.Range, c.Text)
			if errors.Is(err, document.ErrIncoherentEdit) {
				log.Warning("document reparsed", "uri", u, "error", err)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	}

	err := m.Documents.With(u, apply)
	if errors.Is(err, ErrUnknownDocument) && len(changes) > 0 && changes[len(changes)-1].Range == nil {
		// a full content change is enough to start tracking the document
		return m.Open(u, version, changes[len(changes)-1].Text)
	}
	return err
}

// Close hands the document back to the file system. It stays in the set for
// cross-file resolution.
func (m *Manager) Close(u protocol.DocumentUri) error {
	return m.Documents.With(u, func(d *document.Document) error {
		d.Open = false
		return nil
	})
}

// Reload reads u from disk. Documents open in the editor are not reloaded.
func (m *Manager) Reload(u protocol.DocumentUri) error {
	p, err := uri.ToPath(u)
	if err != nil {
		return err
	}
	if path.Base(p) != m.cfg.DefinitionFile {
		return nil
	}
	content, err := afero.ReadFile(m.fs, p)
	if err != nil {
		return errors.WithDetails(err, "uri", u)
	}
	return m.load(u, string(content))
}

// Remove forgets u. It reports whether u was known.
func (m *Manager) Remove(u protocol.DocumentUri) bool {
	return m.Documents.DeleteFunc(u, func(*document.Document) {
		if err := m.Index.Delete(u); err != nil {
			log.Error("failed to drop symbols", "uri", u, "error", err)
		}
	})
}

// reindex replaces the symbols of d in the index. It runs with the lock of d
// held, so the index follows the content changes of d in order.
func (m *Manager) reindex(d *document.Document) {
	if err := m.Index.Replace(d.URI, symbol.Document(d)); err != nil {
		log.Error("failed to index symbols", "uri", d.URI, "error", err)
	}
}

// Shutdown releases every document and the index.
func (m *Manager) Shutdown() error {
	m.Documents.Close()
	m.parsers.Close()
	return m.Index.Close()
}
