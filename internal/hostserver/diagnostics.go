package hostserver

import (
	"context"
	"time"

	protocol "github.com/simonzack/sublimelint/internal/lsp/protocol"

	"github.com/simonzack/sublimelint/internal/checker"
	"github.com/simonzack/sublimelint/internal/state"
)

// onLintReady is the daemon callback: a document's debounce window elapsed.
// enqueued is the timestamp of the winning hit; if the document has been
// hit again since, this callback is superseded and the newer one does the
// work.
func (s *Server) onLintReady(docID string, enqueued time.Time) {
	doc := s.documents.Get(docID)
	if doc == nil {
		return // closed while waiting
	}
	if doc.LastHit.After(enqueued) {
		return // superseded by a newer edit
	}

	issues := s.runCheckers(doc)
	s.app.State.SetIssues(docID, issues)
	s.app.State.SetHighlights(docID, state.NewHighlightSet(issues))
	s.publishDiagnostics(doc, issues)
}

// runCheckers executes every checker assigned to the document against its
// current content.
func (s *Server) runCheckers(doc *Document) []checker.Issue {
	var issues []checker.Issue
	for _, instance := range s.app.State.Checkers(doc.URI) {
		name := instance.Descriptor.Name
		found := instance.Checker.Check(context.Background(), checker.Input{
			DocumentID: doc.URI,
			Path:       doc.Path(),
			Content:    []byte(doc.Content),
			Options:    s.app.Settings.CheckerOptions(name),
		})
		issues = append(issues, found...)
	}
	return issues
}

// publishDiagnostics pushes the stored issues for a document to the editor.
func (s *Server) publishDiagnostics(doc *Document, issues []checker.Issue) {
	conn := s.currentConn()
	if conn == nil {
		return
	}
	version := doc.Version
	err := conn.Notify(context.Background(), "textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		Uri:         protocol.DocumentUri(doc.URI),
		Version:     &version,
		Diagnostics: convertDiagnostics(issues),
	})
	if err != nil {
		s.log.Warnf("failed to publish diagnostics for %s: %v", doc.URI, err)
	}
}

// clearDiagnostics sends an empty diagnostics array for a closed document.
func (s *Server) clearDiagnostics(ctx context.Context, docURI string, version *int32) {
	conn := s.currentConn()
	if conn == nil {
		return
	}
	err := conn.Notify(ctx, "textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		Uri:         protocol.DocumentUri(docURI),
		Version:     version,
		Diagnostics: []protocol.Diagnostic{},
	})
	if err != nil {
		s.log.Warnf("failed to clear diagnostics for %s: %v", docURI, err)
	}
}

// convertDiagnostics converts issues to LSP diagnostics. Issues use 1-based
// lines and 0-based columns; LSP is 0-based for both. Point locations are
// stretched to the end of the line so editors render something visible.
func convertDiagnostics(issues []checker.Issue) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(issues))
	for _, issue := range issues {
		line := clampUint32(issue.Line - 1)
		col := clampUint32(issue.Column)
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + 1000}, // clamped by the editor
			},
			Severity: severityToLSP(issue.Severity),
			Code:     issue.Code,
			Source:   serverName,
			Message:  issue.Message,
		})
	}
	return diagnostics
}

func severityToLSP(s checker.Severity) protocol.DiagnosticSeverity {
	if s == checker.SeverityError {
		return protocol.DiagnosticSeverityError
	}
	return protocol.DiagnosticSeverityWarning
}

func clampUint32(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}
