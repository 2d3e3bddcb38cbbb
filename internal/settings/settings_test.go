package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonzack/sublimelint/internal/checker"
	"github.com/simonzack/sublimelint/internal/checker/builtin"
)

// writeSettingsFile persists a user settings document in the on-disk format.
func writeSettingsFile(t *testing.T, dir string, user map[string]any) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"user": user})
	require.NoError(t, err)
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestSettings_GetDefault(t *testing.T) {
	t.Parallel()

	s := New("", nil)
	assert.Equal(t, "fallback", s.Get("missing", "fallback"))

	s.Set("missing", "found")
	assert.Equal(t, "found", s.Get("missing", "fallback"))
}

func TestSettings_SetSnapshotsPrevious(t *testing.T) {
	t.Parallel()

	s := New("", nil)
	s.Set("debug", true)
	s.Set("debug", false)

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Equal(t, true, s.previous["debug"],
		"previous must hold the state before the last mutation")
	assert.Equal(t, false, s.current["debug"])
}

func TestSettings_MergePriority(t *testing.T) {
	t.Parallel()

	registry := checker.NewRegistry()
	builtin.Register(registry)

	path := writeSettingsFile(t, t.TempDir(), map[string]any{
		"gutter_theme": "Hands",
		"linters": map[string]any{
			builtin.LineLengthName: map[string]any{"max": 80},
		},
	})

	s := New(path, registry)
	require.NoError(t, s.Reconcile())

	// User file beats defaults.
	assert.Equal(t, "Hands", s.GutterTheme())

	// User linter options overlay registry defaults.
	opts := s.CheckerOptions(builtin.LineLengthName)
	assert.Equal(t, float64(80), opts["max"])
	assert.Equal(t, true, opts["@disable"], "untouched defaults survive the overlay")

	// Registry defaults fill in checkers the user never mentioned.
	opts = s.CheckerOptions(builtin.TrailingWhitespaceName)
	assert.Equal(t, false, opts["skip-blank-lines"])
}

func TestSettings_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPrefix+"DELAY", "2.5")
	t.Setenv(EnvPrefix+"DEBUG", "true")
	t.Setenv(EnvPrefix+"UNRELATED", "ignored")

	s := New("", nil)
	require.NoError(t, s.Reconcile())

	delay, ok := s.LintDelay()
	require.True(t, ok)
	assert.Equal(t, 2500*time.Millisecond, delay)
	assert.True(t, s.Debug())
	assert.Nil(t, s.Get("unrelated", nil), "unknown env vars are dropped")
}

func TestSettings_EnvOverridesRejectBadValues(t *testing.T) {
	t.Setenv(EnvPrefix+"DELAY", "not-a-number")

	s := New("", nil)
	require.NoError(t, s.Reconcile())

	_, ok := s.LintDelay()
	assert.False(t, ok)
}

func TestSettings_LintDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  time.Duration
		ok    bool
	}{
		{name: "seconds as float", value: 0.5, want: 500 * time.Millisecond, ok: true},
		{name: "seconds as int", value: 2, want: 2 * time.Second, ok: true},
		{name: "zero is unset", value: 0.0, ok: false},
		{name: "negative is unset", value: -1.0, ok: false},
		{name: "non-numeric is unset", value: "fast", ok: false},
		{name: "absent", value: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := New("", nil)
			if tt.value != nil {
				s.Set("delay", tt.value)
			}
			got, ok := s.LintDelay()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSettings_SyntaxMap(t *testing.T) {
	t.Parallel()

	s := New("", nil)
	s.Set("syntax_map", map[string]any{
		"html (django)": "html",
		"bogus":         42, // non-string values are dropped
	})

	assert.Equal(t, map[string]string{"html (django)": "html"}, s.SyntaxMap())
}

func TestSettings_MalformedUserFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(path, nil)
	require.NoError(t, s.Reconcile())

	assert.Equal(t, "Default", s.GutterTheme())
	assert.False(t, s.Disabled())
}

func TestSettings_LoadIsIdempotent(t *testing.T) {
	t.Parallel()

	path := writeSettingsFile(t, t.TempDir(), map[string]any{"debug": true})

	s := New(path, nil)
	defer s.Teardown()

	require.NoError(t, s.Load(false))
	assert.True(t, s.Debug())

	// Already loaded, so this must not re-read or re-subscribe.
	require.NoError(t, os.Remove(path))
	require.NoError(t, s.Load(false))
	assert.True(t, s.Debug())
}
