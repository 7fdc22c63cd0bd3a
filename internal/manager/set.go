package manager

import (
	"sort"
	"sync"

	"github.com/glehmann/earthlyls/internal/document"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
)

// ErrUnknownDocument is returned when a URI is not in the DocumentSet.
var ErrUnknownDocument = errors.Base("unknown document")

type entry struct {
	mu  sync.Mutex
	doc *document.Document
}

// DocumentSet is the concurrent collection of known documents. Each document
// has its own lock, so operations on different documents never wait on each
// other. Callbacks run with the document lock held and must not block on
// file I/O or on another document of the set.
type DocumentSet struct {
	mu      sync.RWMutex
	entries map[protocol.DocumentUri]*entry
}

// NewDocumentSet creates an empty DocumentSet.
func NewDocumentSet() *DocumentSet {
	return &DocumentSet{entries: make(map[protocol.DocumentUri]*entry)}
}

func (s *DocumentSet) lookup(uri protocol.DocumentUri) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[uri]
}

// With runs fn with exclusive access to the document of uri.
func (s *DocumentSet) With(uri protocol.DocumentUri, fn func(*document.Document) error) error {
	e := s.lookup(uri)
	if e == nil {
		return errors.WithDetails(ErrUnknownDocument, "uri", uri)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		// removed while waiting for the lock
		return errors.WithDetails(ErrUnknownDocument, "uri", uri)
	}
	return fn(e.doc)
}

// Upsert runs update on the document of uri, or stores the document returned
// by create when uri is unknown.
func (s *DocumentSet) Upsert(
	uri protocol.DocumentUri,
	create func() (*document.Document, error),
	update func(*document.Document) error,
) error {
	return s.UpsertFunc(uri, create, update, nil)
}

// UpsertFunc is Upsert followed by stored on the resulting document. The
// document lock is held from update, or from the insertion of the created
// document, until stored returns.
func (s *DocumentSet) UpsertFunc(
	uri protocol.DocumentUri,
	create func() (*document.Document, error),
	update func(*document.Document) error,
	stored func(*document.Document),
) error {
	for {
		err := s.With(uri, func(d *document.Document) error {
			if update != nil {
				if err := update(d); err != nil {
					return err
				}
			}
			if stored != nil {
				stored(d)
			}
			return nil
		})
		if !errors.Is(err, ErrUnknownDocument) {
			return err
		}

		doc, err := create()
		if err != nil {
			return err
		}
		s.mu.Lock()
		if _, ok := s.entries[uri]; ok {
			// lost a race against another writer, update its document instead
			s.mu.Unlock()
			doc.Close()
			continue
		}
		e := &entry{doc: doc}
		e.mu.Lock()
		s.entries[uri] = e
		s.mu.Unlock()
		if stored != nil {
			stored(doc)
		}
		e.mu.Unlock()
		return nil
	}
}

// Delete removes the document of uri and releases it. It reports whether
// the document was known.
func (s *DocumentSet) Delete(uri protocol.DocumentUri) bool {
	return s.DeleteFunc(uri, nil)
}

// DeleteFunc is Delete calling removed with the document lock held, before
// the document leaves the set. A document created again for uri is only
// stored once removed has returned.
func (s *DocumentSet) DeleteFunc(uri protocol.DocumentUri, removed func(*document.Document)) bool {
	e := s.lookup(uri)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		// removed while waiting for the lock
		return false
	}
	if removed != nil {
		removed(e.doc)
	}
	s.mu.Lock()
	if s.entries[uri] == e {
		delete(s.entries, uri)
	}
	s.mu.Unlock()
	e.doc.Close()
	e.doc = nil
	return true
}

// Has reports whether uri is in the set.
func (s *DocumentSet) Has(uri protocol.DocumentUri) bool {
	return s.lookup(uri) != nil
}

// Len returns the number of documents.
func (s *DocumentSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// URIs returns the URIs of every document, sorted.
func (s *DocumentSet) URIs() []protocol.DocumentUri {
	s.mu.RLock()
	uris := make([]protocol.DocumentUri, 0, len(s.entries))
	for uri := range s.entries {
		uris = append(uris, uri)
	}
	s.mu.RUnlock()
	sort.Strings(uris)
	return uris
}

// Range calls fn for every document, in URI order, locking one document at
// a time. Documents removed during the iteration are skipped. Iteration
// stops at the first error.
func (s *DocumentSet) Range(fn func(*document.Document) error) error {
	for _, uri := range s.URIs() {
		err := s.With(uri, fn)
		if errors.Is(err, ErrUnknownDocument) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Close releases every document.
func (s *DocumentSet) Close() {
	for _, uri := range s.URIs() {
		s.Delete(uri)
	}
}
