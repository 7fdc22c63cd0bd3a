package server

import (
	"github.com/glehmann/earthlyls/internal/config"
	"github.com/glehmann/earthlyls/internal/diagnostic"
	"github.com/glehmann/earthlyls/internal/manager"
	"github.com/glehmann/earthlyls/internal/resolver"
	"github.com/glehmann/earthlyls/internal/scheduler"
	"github.com/glehmann/earthlyls/internal/semtok"
	"github.com/glehmann/earthlyls/internal/uri"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
)

var triggerCharacters = []string{"=", "$", "{", "-"}

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	cfg, err := config.Load(params.InitializationOptions)
	if err != nil {
		return nil, err
	}
	log.Infof("config: %+v", cfg)

	s.mu.Lock()
	s.notify = context.Notify
	s.mu.Unlock()

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.shutDown {
		return nil, ErrShutdown
	}
	if s.manager != nil {
		return nil, errors.New("server already initialized")
	}
	m, err := manager.New(s.fs, cfg)
	if err != nil {
		return nil, err
	}
	m.SetRoots(workspaceRoots(params))
	loaded := m.Scan()
	log.Info("workspace loaded", "documents", len(loaded))

	s.manager = m
	s.resolver = resolver.New(m.Documents, cfg.DefinitionFile)
	s.diagnostics = diagnostic.NewAggregator(m.Documents, s.publish, cfg.DiagnosticWorkers, cfg.DisabledDiagnostics)
	s.scheduler = scheduler.NewScheduler(64)
	s.scheduler.RunScheduler()
	s.schedulePublish()

	syncKind := protocol.TextDocumentSyncKindIncremental

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
		Save:      &protocol.SaveOptions{IncludeText: &protocol.False},
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: triggerCharacters,
	}
	capabilities.SemanticTokensProvider = &protocol.SemanticTokensOptions{
		Legend: semtok.Legend,
		Full:   true,
		Range:  true,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &s.Version,
		},
	}, nil
}

// workspaceRoots returns the workspace folders of params, or the root URI
// named "default" when the client sends no folder.
func workspaceRoots(params *protocol.InitializeParams) []manager.Root {
	var roots []manager.Root
	if params.WorkspaceFolders != nil {
		for _, folder := range params.WorkspaceFolders {
			p, err := uri.ToPath(folder.URI)
			if err != nil {
				log.Error("unsupported workspace folder", "name", folder.Name, "uri", folder.URI, "error", err)
				continue
			}
			roots = append(roots, manager.Root{Name: folder.Name, Path: p})
		}
		return roots
	}
	if params.RootURI != nil {
		p, err := uri.ToPath(*params.RootURI)
		if err != nil {
			log.Error("unsupported root uri", "uri", *params.RootURI, "error", err)
			return nil
		}
		return []manager.Root{{Name: "default", Path: p}}
	}
	log.Error("no workspace configuration")
	return nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Info("client initialized")
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.shutDown {
		return nil
	}
	log.Info("shutting down")
	s.shutDown = true
	if s.manager == nil {
		return nil
	}
	s.scheduler.StopScheduler()
	return s.manager.Shutdown()
}
