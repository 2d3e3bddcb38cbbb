package settings

import (
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockReactor counts reaction invocations.
type mockReactor struct {
	relints      atomic.Int32
	cacheClears  atomic.Int32
	reassigns    atomic.Int32
	searchPaths  [][]string
	gutterThemes []string
}

func (m *mockReactor) RelintAll()   { m.relints.Add(1) }
func (m *mockReactor) ClearCaches() { m.cacheClears.Add(1) }
func (m *mockReactor) ReassignAll() { m.reassigns.Add(1) }

func (m *mockReactor) AppendSearchPath(paths []string) {
	m.searchPaths = append(m.searchPaths, paths)
}

func (m *mockReactor) UpdateGutterTheme(theme string) {
	m.gutterThemes = append(m.gutterThemes, theme)
}

func (m *mockReactor) reset() {
	m.relints.Store(0)
	m.cacheClears.Store(0)
	m.reassigns.Store(0)
	m.searchPaths = nil
	m.gutterThemes = nil
}

// mockObserver records SettingsUpdated notifications.
type mockObserver struct {
	updates []bool
}

func (m *mockObserver) SettingsUpdated(relinted bool) {
	m.updates = append(m.updates, relinted)
}

func newReconcileFixture(t *testing.T, user map[string]any) (*Settings, *mockReactor, *mockObserver, string) {
	t.Helper()
	dir := t.TempDir()
	path := writeSettingsFile(t, dir, user)

	s := New(path, nil)
	reactor := &mockReactor{}
	observer := &mockObserver{}
	s.SetReactor(reactor)
	s.OnUpdateCall(observer)
	return s, reactor, observer, path
}

func TestReconcile_SecondIdenticalPassIsNoop(t *testing.T) {
	t.Parallel()

	s, reactor, observer, _ := newReconcileFixture(t, map[string]any{
		"gutter_theme": "Hands",
	})

	// First pass: everything differs from the empty initial state.
	require.NoError(t, s.Reconcile())
	assert.Equal(t, int32(1), reactor.relints.Load())
	reactor.reset()

	// Same external configuration again: nothing changed, nothing fires.
	require.NoError(t, s.Reconcile())
	assert.Equal(t, int32(0), reactor.relints.Load())
	assert.Equal(t, int32(0), reactor.cacheClears.Load())
	assert.Equal(t, int32(0), reactor.reassigns.Load())
	assert.Empty(t, reactor.searchPaths)
	assert.Empty(t, reactor.gutterThemes)

	require.Len(t, observer.updates, 2)
	assert.True(t, observer.updates[0])
	assert.False(t, observer.updates[1], "identical pass must report no relint")
}

func TestReconcile_DisableToggleRelints(t *testing.T) {
	t.Parallel()

	s, reactor, _, path := newReconcileFixture(t, map[string]any{})
	require.NoError(t, s.Reconcile())
	reactor.reset()

	writeSettingsFile(t, pathDir(path), map[string]any{"@disable": true})
	require.NoError(t, s.Reconcile())

	assert.Equal(t, int32(1), reactor.relints.Load())
	assert.Equal(t, int32(0), reactor.cacheClears.Load())
	assert.Equal(t, int32(0), reactor.reassigns.Load())
}

func TestReconcile_PathsChangeClearsCaches(t *testing.T) {
	t.Parallel()

	s, reactor, _, path := newReconcileFixture(t, map[string]any{})
	require.NoError(t, s.Reconcile())
	reactor.reset()

	writeSettingsFile(t, pathDir(path), map[string]any{
		"paths": []string{"/opt/linters/bin"},
	})
	require.NoError(t, s.Reconcile())

	assert.Equal(t, int32(1), reactor.cacheClears.Load())
	assert.Equal(t, int32(1), reactor.relints.Load())
}

func TestReconcile_PythonPathsAppendsForPlatform(t *testing.T) {
	t.Parallel()

	s, reactor, _, path := newReconcileFixture(t, map[string]any{})
	require.NoError(t, s.Reconcile())
	reactor.reset()

	writeSettingsFile(t, pathDir(path), map[string]any{
		"python_paths": map[string]any{
			platformName():  []string{"/usr/lib/py"},
			otherPlatform(): []string{"/should/not/appear"},
		},
	})
	require.NoError(t, s.Reconcile())

	require.Len(t, reactor.searchPaths, 1)
	assert.Equal(t, []string{"/usr/lib/py"}, reactor.searchPaths[0])
	assert.Equal(t, int32(1), reactor.relints.Load())
}

func TestReconcile_SyntaxMapChangeReassigns(t *testing.T) {
	t.Parallel()

	s, reactor, _, path := newReconcileFixture(t, map[string]any{})
	require.NoError(t, s.Reconcile())
	reactor.reset()

	writeSettingsFile(t, pathDir(path), map[string]any{
		"syntax_map": map[string]any{"html (django)": "html"},
	})
	require.NoError(t, s.Reconcile())

	assert.Equal(t, int32(1), reactor.reassigns.Load())
	assert.Equal(t, int32(1), reactor.relints.Load())
}

func TestReconcile_LinterOptionsChangeRelintsOnly(t *testing.T) {
	t.Parallel()

	s, reactor, _, path := newReconcileFixture(t, map[string]any{})
	require.NoError(t, s.Reconcile())
	reactor.reset()

	writeSettingsFile(t, pathDir(path), map[string]any{
		"linters": map[string]any{"flake8": map[string]any{"max-line-length": 100}},
	})
	require.NoError(t, s.Reconcile())

	assert.Equal(t, int32(1), reactor.relints.Load())
	assert.Equal(t, int32(0), reactor.cacheClears.Load())
	assert.Equal(t, int32(0), reactor.reassigns.Load())
	assert.Empty(t, reactor.gutterThemes)
}

func TestReconcile_GutterThemeChangeDoesNotRelint(t *testing.T) {
	t.Parallel()

	s, reactor, observer, path := newReconcileFixture(t, map[string]any{})
	require.NoError(t, s.Reconcile())
	reactor.reset()
	observer.updates = nil

	writeSettingsFile(t, pathDir(path), map[string]any{"gutter_theme": "Koloria"})
	require.NoError(t, s.Reconcile())

	assert.Equal(t, []string{"Koloria"}, reactor.gutterThemes)
	assert.Equal(t, int32(0), reactor.relints.Load())
	require.Len(t, observer.updates, 1)
	assert.False(t, observer.updates[0])
}

func TestReconcile_ManyChangesSingleRelint(t *testing.T) {
	t.Parallel()

	s, reactor, _, path := newReconcileFixture(t, map[string]any{})
	require.NoError(t, s.Reconcile())
	reactor.reset()

	// Touch every relint-worthy setting at once.
	writeSettingsFile(t, pathDir(path), map[string]any{
		"@disable":   true,
		"paths":      []string{"/opt/bin"},
		"syntax_map": map[string]any{"a": "b"},
		"linters":    map[string]any{"flake8": map[string]any{"@disable": true}},
	})
	require.NoError(t, s.Reconcile())

	assert.Equal(t, int32(1), reactor.relints.Load(), "at most one relint per pass")
	assert.Equal(t, int32(1), reactor.cacheClears.Load())
	assert.Equal(t, int32(1), reactor.reassigns.Load())
}

func TestReconcile_NilReactorIsSafe(t *testing.T) {
	t.Parallel()

	path := writeSettingsFile(t, t.TempDir(), map[string]any{"@disable": true})
	s := New(path, nil)
	require.NoError(t, s.Reconcile())
	assert.True(t, s.Disabled())
}

func pathDir(path string) string {
	return filepath.Dir(path)
}

// otherPlatform returns a python_paths key that never matches the current
// platform.
func otherPlatform() string {
	if runtime.GOOS == "windows" {
		return "linux"
	}
	return "windows"
}
