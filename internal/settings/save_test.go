package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonzack/sublimelint/internal/checker"
	"github.com/simonzack/sublimelint/internal/checker/builtin"
)

func TestEncode_Format(t *testing.T) {
	t.Parallel()

	data, err := Encode(map[string]any{
		"debug":        true,
		"gutter_theme": "Hands",
		"linters": map[string]any{
			"flake8": map[string]any{"@disable": false},
		},
	})
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "{\n    \"user\": {"),
		"settings are wrapped in a user object with 4-space indentation")
	assert.True(t, strings.HasSuffix(text, "}\n"), "file ends with a newline")
	assert.NotContains(t, text, " \n", "no trailing spaces before newlines")

	// Keys come out sorted.
	assert.Less(t, strings.Index(text, "\"debug\""), strings.Index(text, "\"gutter_theme\""))
	assert.Less(t, strings.Index(text, "\"gutter_theme\""), strings.Index(text, "\"linters\""))
}

func TestEncode_Snapshot(t *testing.T) {
	t.Parallel()

	data, err := Encode(map[string]any{
		"@disable":     false,
		"gutter_theme": "Default",
		"paths":        []string{},
		"linters": map[string]any{
			"trailing-whitespace": map[string]any{
				"@disable":         false,
				"skip-blank-lines": true,
			},
		},
	})
	require.NoError(t, err)
	snaps.MatchSnapshot(t, string(data))
}

func TestSave_FillsCheckerDefaults(t *testing.T) {
	t.Parallel()

	registry := checker.NewRegistry()
	builtin.Register(registry)

	dir := t.TempDir()
	path := writeSettingsFile(t, dir, map[string]any{
		"linters": map[string]any{
			builtin.TrailingWhitespaceName: map[string]any{"skip-blank-lines": true},
		},
	})

	s := New(path, registry)
	defer s.Teardown()
	require.NoError(t, s.Save())

	var saved struct {
		User map[string]any `json:"user"`
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &saved))

	linters, ok := saved.User["linters"].(map[string]any)
	require.True(t, ok)

	// Every registered checker gets persisted with an explicit @disable.
	tw, ok := linters[builtin.TrailingWhitespaceName].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, tw["@disable"])
	assert.Equal(t, true, tw["skip-blank-lines"], "user overrides survive the fill")

	ll, ok := linters[builtin.LineLengthName].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, ll["@disable"])
}

func TestSave_CreatesFileFromDefaults(t *testing.T) {
	t.Parallel()

	registry := checker.NewRegistry()
	builtin.Register(registry)

	path := filepath.Join(t.TempDir(), FileName)
	s := New(path, registry)
	defer s.Teardown()
	require.NoError(t, s.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved struct {
		User map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "Default", saved.User["gutter_theme"])
}
