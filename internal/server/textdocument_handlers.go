package server

import (
	"github.com/glehmann/earthlyls/internal/manager"
	"github.com/glehmann/earthlyls/internal/scheduler"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"gitlab.com/tozd/go/errors"
)

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	release, err := s.enter()
	if err != nil {
		return err
	}
	defer release()

	doc := params.TextDocument
	if err := s.manager.Open(doc.URI, doc.Version, doc.Text); err != nil {
		return err
	}
	s.schedulePublish(doc.URI)
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	release, err := s.enter()
	if err != nil {
		return err
	}
	defer release()

	changes := make([]manager.Change, 0, len(params.ContentChanges))
	for _, raw := range params.ContentChanges {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEvent:
			changes = append(changes, manager.Change{Range: change.Range, Text: change.Text})
		case protocol.TextDocumentContentChangeEventWhole:
			changes = append(changes, manager.Change{Text: change.Text})
		default:
			return errors.Errorf("unexpected change event type %T", raw)
		}
	}
	u := params.TextDocument.URI
	if err := s.manager.Change(u, params.TextDocument.Version, changes); err != nil {
		return err
	}
	s.schedulePublish(u)
	return nil
}

func (s *Server) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	release, err := s.enter()
	if err != nil {
		return err
	}
	defer release()

	s.schedulePublish(params.TextDocument.URI)
	return nil
}

// textDocumentDidClose hands the document back to the file system, so its
// content is read again from disk.
func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	release, err := s.enter()
	if err != nil {
		return err
	}
	defer release()

	u := params.TextDocument.URI
	if err := s.manager.Close(u); err != nil {
		return err
	}
	if err := s.manager.Reload(u); err != nil {
		log.Warning("failed to reload closed document", "uri", u, "error", err)
		return nil
	}
	s.schedulePublish(u)
	return nil
}

func (s *Server) workspaceDidChangeWatchedFiles(
	context *glsp.Context,
	params *protocol.DidChangeWatchedFilesParams,
) error {
	release, err := s.enter()
	if err != nil {
		return err
	}
	defer release()

	var changed []protocol.DocumentUri
	for _, event := range params.Changes {
		switch event.Type {
		case protocol.FileChangeTypeCreated, protocol.FileChangeTypeChanged:
			if err := s.manager.Reload(event.URI); err != nil {
				log.Warning("failed to reload document", "uri", event.URI, "error", err)
				continue
			}
			changed = append(changed, event.URI)
		case protocol.FileChangeTypeDeleted:
			if !s.manager.Remove(event.URI) {
				continue
			}
			u := event.URI
			s.scheduler.Schedule(scheduler.Task{
				Name:    "clear diagnostics",
				Execute: func() error { s.diagnostics.Clear(u); return nil },
			})
		}
	}
	if len(changed) > 0 {
		s.schedulePublish(changed...)
	}
	return nil
}
