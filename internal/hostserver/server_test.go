package hostserver

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonzack/sublimelint/internal/app"
	"github.com/simonzack/sublimelint/internal/checker"
	"github.com/simonzack/sublimelint/internal/checker/builtin"
	protocol "github.com/simonzack/sublimelint/internal/lsp/protocol"
)

// newTestServer builds a server around a core with temp-dir settings. No
// connection is attached, so diagnostics publishing is a no-op.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	core := app.New(app.Options{
		SettingsPath:   filepath.Join(dir, "settings.json"),
		UserThemeDir:   filepath.Join(dir, "user-themes"),
		PluginThemeDir: filepath.Join(dir, "plugin-themes"),
	})
	s := New(core)
	// Merge defaults once so per-checker settings are in effect.
	require.NoError(t, core.Settings.Reconcile())
	return s
}

func openParams(uri, languageID, text string) *protocol.DidOpenTextDocumentParams {
	return &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			Uri:        protocol.DocumentUri(uri),
			LanguageId: languageID,
			Version:    1,
			Text:       text,
		},
	}
}

func TestServer_DidOpenBindsAndAssigns(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.handleDidOpen(openParams("file:///src/app.py", "python", "x = 1 \n"))

	handle, ok := s.app.State.Binding("file:///src/app.py")
	require.True(t, ok)
	assert.Equal(t, "python", handle.Syntax())

	// The wildcard builtin applies to every language.
	instances := s.app.State.Checkers("file:///src/app.py")
	require.NotEmpty(t, instances)
	assert.Equal(t, builtin.TrailingWhitespaceName, instances[0].Descriptor.Name)

	// The open also counts as a hit.
	doc := s.documents.Get("file:///src/app.py")
	require.NotNil(t, doc)
	assert.False(t, doc.LastHit.IsZero())
}

func TestServer_DidChangeUpdatesContent(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.handleDidOpen(openParams("file:///src/app.py", "python", "old"))

	s.handleDidChange(&protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			Uri:     "file:///src/app.py",
			Version: 2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "new"}},
	})

	doc := s.documents.Get("file:///src/app.py")
	require.NotNil(t, doc)
	assert.Equal(t, "new", doc.Content)
	assert.Equal(t, int32(2), doc.Version)
}

func TestServer_DidClosePurgesEverything(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.handleDidOpen(openParams("file:///src/app.py", "python", "x = 1 \n"))
	s.app.State.SetIssues("file:///src/app.py", []checker.Issue{{Line: 1, Message: "m"}})

	s.handleDidClose(context.Background(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{Uri: "file:///src/app.py"},
	})

	assert.Nil(t, s.documents.Get("file:///src/app.py"))
	_, ok := s.app.State.Issues("file:///src/app.py")
	assert.False(t, ok)
	_, ok = s.app.State.Binding("file:///src/app.py")
	assert.False(t, ok)
}

func TestServer_OnLintReadyStoresIssues(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.handleDidOpen(openParams("file:///src/app.py", "python", "x = 1 \nclean\n"))

	doc := s.documents.Get("file:///src/app.py")
	s.onLintReady("file:///src/app.py", doc.LastHit)

	issues, ok := s.app.State.Issues("file:///src/app.py")
	require.True(t, ok)
	require.Len(t, issues, 1)
	assert.Equal(t, builtin.TrailingWhitespaceName, issues[0].Code)
	assert.Equal(t, 1, issues[0].Line)

	hs, ok := s.app.State.Highlights("file:///src/app.py")
	require.True(t, ok)
	assert.Len(t, hs.Regions(), 1)
}

func TestServer_OnLintReadySkipsSuperseded(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.handleDidOpen(openParams("file:///src/app.py", "python", "x = 1 \n"))

	// A newer hit arrived after this callback's request was enqueued.
	stale := time.Now().Add(-time.Minute)
	s.onLintReady("file:///src/app.py", stale)

	_, ok := s.app.State.Issues("file:///src/app.py")
	assert.False(t, ok, "superseded callback must not store issues")
}

func TestServer_OnLintReadyIgnoresClosedDocument(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.onLintReady("file:///gone.py", time.Now())

	_, ok := s.app.State.Issues("file:///gone.py")
	assert.False(t, ok)
}

func TestServer_InitializeCapabilities(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	result, err := s.handleInitialize(&protocol.InitializeParams{
		ClientInfo: &protocol.ClientInfo{Name: "testclient"},
	})
	require.NoError(t, err)

	init, ok := result.(*protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, init.Capabilities.TextDocumentSync)
	assert.True(t, init.Capabilities.TextDocumentSync.OpenClose)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, init.Capabilities.TextDocumentSync.Change)
	assert.Equal(t, serverName, init.ServerInfo.Name)
}

func TestConvertDiagnostics(t *testing.T) {
	t.Parallel()

	diags := convertDiagnostics([]checker.Issue{
		{Line: 3, Column: 4, Code: "c1", Message: "first", Severity: checker.SeverityError},
		{Line: 1, Column: 0, Code: "c2", Message: "second", Severity: checker.SeverityWarning},
	})

	require.Len(t, diags, 2)

	// 1-based lines become 0-based; columns are already 0-based.
	assert.Equal(t, uint32(2), diags[0].Range.Start.Line)
	assert.Equal(t, uint32(4), diags[0].Range.Start.Character)
	assert.Equal(t, protocol.DiagnosticSeverityError, diags[0].Severity)
	assert.Equal(t, serverName, diags[0].Source)

	assert.Equal(t, uint32(0), diags[1].Range.Start.Line)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, diags[1].Severity)
}

func TestConvertDiagnostics_ClampsNegativePositions(t *testing.T) {
	t.Parallel()

	diags := convertDiagnostics([]checker.Issue{{Line: 0, Column: -1, Message: "odd"}})
	require.Len(t, diags, 1)
	assert.Equal(t, uint32(0), diags[0].Range.Start.Line)
	assert.Equal(t, uint32(0), diags[0].Range.Start.Character)
}
