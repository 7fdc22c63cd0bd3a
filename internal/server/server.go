// Package server maps the language server protocol onto the document engine.
package server

import (
	"sync"

	"github.com/glehmann/earthlyls/internal/diagnostic"
	"github.com/glehmann/earthlyls/internal/document"
	"github.com/glehmann/earthlyls/internal/manager"
	"github.com/glehmann/earthlyls/internal/resolver"
	"github.com/glehmann/earthlyls/internal/scheduler"

	"github.com/spf13/afero"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
	"gitlab.com/tozd/go/errors"
)

const Name = "earthlyls"

var (
	ErrNotInitialized = errors.Base("server not initialized")
	ErrShutdown       = errors.Base("server is shut down")
)

var log = commonlog.GetLogger("earthlyls.server")

type Server struct {
	Version string

	handler     *protocol.Handler
	fs          afero.Fs
	manager     *manager.Manager
	resolver    *resolver.Resolver
	diagnostics *diagnostic.Aggregator
	scheduler   *scheduler.Scheduler

	mu     sync.Mutex
	notify glsp.NotifyFunc

	// lifecycle is held for reading by every handler using the engine and
	// for writing by initialize and shutdown.
	lifecycle sync.RWMutex
	shutDown  bool
}

// New creates a Server reading unopened documents from fsys.
func New(fsys afero.Fs, version string) *Server {
	ls := &Server{Version: version, fs: fsys}
	ls.handler = &protocol.Handler{
		Initialize:                      ls.initialize,
		Initialized:                     ls.initialized,
		Shutdown:                        ls.shutdown,
		TextDocumentDidOpen:             ls.textDocumentDidOpen,
		TextDocumentDidChange:           ls.textDocumentDidChange,
		TextDocumentDidSave:             ls.textDocumentDidSave,
		TextDocumentDidClose:            ls.textDocumentDidClose,
		TextDocumentDefinition:          ls.textDocumentDefinition,
		TextDocumentReferences:          ls.textDocumentReferences,
		TextDocumentDocumentSymbol:      ls.textDocumentDocumentSymbol,
		TextDocumentHover:               ls.textDocumentHover,
		TextDocumentCompletion:          ls.textDocumentCompletion,
		TextDocumentSemanticTokensFull:  ls.textDocumentSemanticTokensFull,
		TextDocumentSemanticTokensRange: ls.textDocumentSemanticTokensRange,
		WorkspaceSymbol:                 ls.workspaceSymbol,
		WorkspaceDidChangeWatchedFiles:  ls.workspaceDidChangeWatchedFiles,
	}
	return ls
}

// RunStdio serves the protocol on stdin and stdout until the client exits.
func (s *Server) RunStdio() error {
	return server.NewServer(s.handler, Name, false).RunStdio()
}

// publish sends diagnostics with the notifier of the last initialize call.
func (s *Server) publish(uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	s.mu.Lock()
	notify := s.notify
	s.mu.Unlock()
	if notify == nil {
		return
	}
	notify("textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// schedulePublish queues a diagnostics pass for uris, or for every document
// when uris is empty.
func (s *Server) schedulePublish(uris ...protocol.DocumentUri) {
	s.scheduler.Schedule(scheduler.Task{
		Name: "publish diagnostics",
		Execute: func() error {
			if len(uris) == 0 {
				return s.diagnostics.PublishAll()
			}
			return s.diagnostics.Publish(uris...)
		},
	})
}

// enter fails unless the server is initialized and not shut down. On
// success the caller must call release once done with the engine.
func (s *Server) enter() (release func(), err error) {
	s.lifecycle.RLock()
	switch {
	case s.shutDown:
		err = ErrShutdown
	case s.manager == nil:
		err = ErrNotInitialized
	}
	if err != nil {
		s.lifecycle.RUnlock()
		return nil, err
	}
	return s.lifecycle.RUnlock, nil
}

func (s *Server) withDocument(uri protocol.DocumentUri, fn func(*document.Document) error) error {
	return s.manager.Documents.With(uri, fn)
}
