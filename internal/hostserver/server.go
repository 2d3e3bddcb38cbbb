// Package hostserver exposes the plugin core to an editor over stdio
// JSON-RPC, speaking an LSP 3.17-shaped protocol.
//
// Editor events map onto the core: didOpen binds the document and assigns
// checkers, didChange/didSave hit the debounce daemon, didClose purges all
// per-document state, and workspace/didChangeConfiguration triggers a
// settings reconciliation. Diagnostics are published when the daemon's
// debounce window elapses.
//
// Transport: stdio only. JSON-RPC via sourcegraph/jsonrpc2.
package hostserver

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/simonzack/sublimelint/internal/app"
	"github.com/simonzack/sublimelint/internal/checker"
	protocol "github.com/simonzack/sublimelint/internal/lsp/protocol"
	"github.com/simonzack/sublimelint/internal/version"
)

const serverName = "sublimelint"

// Server is the editor-facing host server.
type Server struct {
	app       *app.App
	documents *DocumentStore
	log       *logrus.Entry

	connMu sync.RWMutex
	conn   *jsonrpc2.Conn
}

// New creates a host server around an application core. The server becomes
// the app's notifier for user-visible messages.
func New(a *app.App) *Server {
	s := &Server{
		app:       a,
		documents: NewDocumentStore(),
		log:       logrus.WithField("component", "lsp"),
	}
	a.SetNotifier(s)
	return s
}

// RunStdio starts the daemon, loads settings and serves on stdin/stdout.
// It blocks until the connection closes or ctx is cancelled; the daemon
// worker exits with ctx.
func (s *Server) RunStdio(ctx context.Context) error {
	if err := s.app.Start(ctx, s.onLintReady); err != nil {
		return err
	}
	defer s.app.Teardown()

	stream := jsonrpc2.NewBufferedStream(stdioReadWriteCloser{}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle))

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	select {
	case <-ctx.Done():
		return conn.Close()
	case <-conn.DisconnectNotify():
		return nil
	}
}

// handle dispatches incoming JSON-RPC messages.
func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	switch req.Method {
	// Lifecycle
	case "initialize":
		return unmarshalAndCall(req, s.handleInitialize)
	case "initialized", "$/setTrace":
		return nil, nil //nolint:nilnil // LSP: notifications have no result
	case "shutdown":
		return nil, nil //nolint:nilnil // LSP: shutdown returns null
	case "exit":
		return nil, conn.Close()

	// Document sync
	case "textDocument/didOpen":
		return nil, unmarshalAndNotify(req, func(p *protocol.DidOpenTextDocumentParams) {
			s.handleDidOpen(p)
		})
	case "textDocument/didChange":
		return nil, unmarshalAndNotify(req, func(p *protocol.DidChangeTextDocumentParams) {
			s.handleDidChange(p)
		})
	case "textDocument/didSave":
		return nil, unmarshalAndNotify(req, func(p *protocol.DidSaveTextDocumentParams) {
			s.handleDidSave(p)
		})
	case "textDocument/didClose":
		return nil, unmarshalAndNotify(req, func(p *protocol.DidCloseTextDocumentParams) {
			s.handleDidClose(ctx, p)
		})

	// Workspace
	case "workspace/didChangeConfiguration":
		return nil, unmarshalAndNotify(req, func(p *protocol.DidChangeConfigurationParams) {
			s.handleDidChangeConfiguration(p)
		})

	default:
		return nil, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: "method not supported: " + req.Method,
		}
	}
}

// handleInitialize advertises full-sync document capabilities.
func (s *Server) handleInitialize(params *protocol.InitializeParams) (any, error) {
	s.log.Infof("initialize from %s", clientInfoString(params))

	ver := version.RawVersion()
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: &ver,
		},
	}, nil
}

// handleDidOpen binds the document, assigns checkers and schedules a check.
func (s *Server) handleDidOpen(params *protocol.DidOpenTextDocumentParams) {
	item := params.TextDocument
	doc := s.documents.Open(string(item.Uri), item.LanguageId, item.Version, item.Text)

	s.app.State.Bind(doc)
	s.app.Assigner.Assign(docInfo(doc))
	s.hit(doc.URI)
}

// handleDidChange updates the document and schedules a debounced check.
func (s *Server) handleDidChange(params *protocol.DidChangeTextDocumentParams) {
	uri := string(params.TextDocument.Uri)

	// Full sync: exactly one content change with the whole text.
	for _, change := range params.ContentChanges {
		s.documents.Update(uri, params.TextDocument.Version, change.Text)
	}
	s.hit(uri)
}

// handleDidSave schedules a check on save.
func (s *Server) handleDidSave(params *protocol.DidSaveTextDocumentParams) {
	uri := string(params.TextDocument.Uri)
	if params.Text != nil && *params.Text != "" {
		s.documents.Update(uri, 0, *params.Text)
	}
	s.hit(uri)
}

// handleDidClose purges everything the core tracks for the document.
func (s *Server) handleDidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) {
	uri := string(params.TextDocument.Uri)
	var docVersion *int32
	if doc := s.documents.Get(uri); doc != nil {
		docVersion = &doc.Version
	}

	s.documents.Close(uri)
	s.app.State.Purge(uri)
	s.app.Daemon.Forget(uri)
	s.clearDiagnostics(ctx, uri, docVersion)
}

// handleDidChangeConfiguration reconciles settings. The settings store
// diffs against its snapshot and triggers whatever reactions apply.
func (s *Server) handleDidChangeConfiguration(_ *protocol.DidChangeConfigurationParams) {
	if err := s.app.Settings.Reconcile(); err != nil {
		s.log.Errorf("didChangeConfiguration: reconcile failed: %v", err)
	}
}

// hit schedules a debounced check and records the accepted timestamp so a
// superseded callback can be recognized later.
func (s *Server) hit(uri string) {
	if doc := s.documents.Get(uri); doc != nil {
		at := s.app.Daemon.Hit(doc)
		s.documents.RecordHit(uri, at)
	}
}

// Warn implements gutter.Notifier via window/showMessage.
func (s *Server) Warn(message string) {
	s.showMessage(protocol.MessageTypeWarning, message)
}

// Error implements gutter.Notifier via window/showMessage.
func (s *Server) Error(message string) {
	s.showMessage(protocol.MessageTypeError, message)
}

func (s *Server) showMessage(kind protocol.MessageType, message string) {
	conn := s.currentConn()
	if conn == nil {
		return
	}
	err := conn.Notify(context.Background(), "window/showMessage", &protocol.ShowMessageParams{
		Type:    kind,
		Message: serverName + ": " + message,
	})
	if err != nil {
		s.log.Warnf("showMessage failed: %v", err)
	}
}

func (s *Server) currentConn() *jsonrpc2.Conn {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.conn
}

// unmarshalAndCall unmarshals request params into T and calls fn.
func unmarshalAndCall[T any](req *jsonrpc2.Request, fn func(*T) (any, error)) (any, error) {
	var params T
	if req.Params != nil {
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
	}
	return fn(&params)
}

// unmarshalAndNotify unmarshals request params into T and calls fn (for
// notifications that have no return).
func unmarshalAndNotify[T any](req *jsonrpc2.Request, fn func(*T)) error {
	var params T
	if req.Params != nil {
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
	}
	fn(&params)
	return nil
}

// clientInfoString formats client info for logging.
func clientInfoString(params *protocol.InitializeParams) string {
	if params == nil || params.ClientInfo == nil {
		return "unknown"
	}
	return params.ClientInfo.Name
}

// docInfo converts a document snapshot to assignment info.
func docInfo(doc *Document) checker.DocumentInfo {
	return checker.DocumentInfo{ID: doc.URI, Path: doc.Path(), Syntax: doc.Syntax()}
}

// stdioReadWriteCloser wraps stdin/stdout as an io.ReadWriteCloser.
type stdioReadWriteCloser struct{}

func (stdioReadWriteCloser) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioReadWriteCloser) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdioReadWriteCloser) Close() error                { return nil }
