// Package settings provides the plugin settings store and its change-driven
// reconciliation.
//
// Settings are merged from built-in defaults, per-checker defaults, the
// user's settings file and SUBLIMELINT_* environment overrides, in that
// priority order (koanf layering, lowest first). Every reconciliation pass
// snapshots the previously observed state and diffs against it to decide
// which subsystems need to react; applying the same configuration twice is
// a no-op.
package settings

import (
	"reflect"
	"runtime"
	"sync"
	"time"

	kmaps "github.com/knadh/koanf/maps"
	"github.com/sirupsen/logrus"

	"github.com/simonzack/sublimelint/internal/checker"
)

// FileName is the user settings file name.
const FileName = "sublimelint.settings.json"

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "SUBLIMELINT_"

// Reactor receives the reconciliation reactions. Implemented by the owning
// application; registered once at startup before Load.
type Reactor interface {
	// RelintAll forces a re-check of every tracked document.
	RelintAll()

	// ClearCaches drops derived caches (resolved checker executables etc.).
	ClearCaches()

	// ReassignAll clears all checker assignments and reassigns every open
	// document.
	ReassignAll()

	// AppendSearchPath appends interpreter paths to the module search path.
	AppendSearchPath(paths []string)

	// UpdateGutterTheme re-resolves the gutter mark theme.
	UpdateGutterTheme(theme string)
}

// Observer is notified after each reconciliation pass with whether a relint
// was triggered.
type Observer interface {
	SettingsUpdated(relinted bool)
}

// Settings is the plugin settings store.
type Settings struct {
	path     string
	registry *checker.Registry
	log      *logrus.Entry

	mu       sync.RWMutex
	current  map[string]any
	previous map[string]any
	loaded   bool
	reactor  Reactor
	observer Observer
	unwatch  func()
}

// New creates a settings store reading the user settings file at path.
// The registry supplies per-checker defaults for the "linters" section.
func New(path string, registry *checker.Registry) *Settings {
	return &Settings{
		path:     path,
		registry: registry,
		log:      logrus.WithField("component", "settings"),
		current:  map[string]any{},
		previous: map[string]any{},
	}
}

// SetReactor registers the reaction sink. Must be called before Load.
func (s *Settings) SetReactor(r Reactor) {
	s.mu.Lock()
	s.reactor = r
	s.mu.Unlock()
}

// OnUpdateCall registers the observer invoked after each reconciliation.
func (s *Settings) OnUpdateCall(o Observer) {
	s.mu.Lock()
	s.observer = o
	s.mu.Unlock()
}

// Load subscribes to settings file change notifications and performs one
// reconciliation pass. A no-op when already loaded, unless force is set.
func (s *Settings) Load(force bool) error {
	s.mu.Lock()
	if s.loaded && !force {
		s.mu.Unlock()
		return nil
	}
	s.loaded = true
	s.mu.Unlock()

	s.observe()
	return s.Reconcile()
}

// Get returns a top-level setting, defaulting to def when absent.
func (s *Settings) Get(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.current[key]; ok {
		return v
	}
	return def
}

// Set changes a top-level setting. The previously observed state is
// snapshotted before the mutation so the next diff runs against what
// clients actually saw, never a half-applied update.
func (s *Settings) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previous = kmaps.Copy(s.current)
	s.current[key] = value
}

// Disabled reports the global "@disable" flag. Part of [checker.Options].
func (s *Settings) Disabled() bool {
	b, _ := s.Get("@disable", false).(bool)
	return b
}

// Debug reports the "debug" flag.
func (s *Settings) Debug() bool {
	b, _ := s.Get("debug", false).(bool)
	return b
}

// GutterTheme returns the "gutter_theme" setting.
func (s *Settings) GutterTheme() string {
	t, _ := s.Get("gutter_theme", "Default").(string)
	return t
}

// SyntaxMap returns the syntax_map setting. Part of [checker.Options].
func (s *Settings) SyntaxMap() map[string]string {
	out := map[string]string{}
	m, _ := s.Get("syntax_map", nil).(map[string]any)
	for k, v := range m {
		if str, ok := v.(string); ok {
			out[k] = str
		}
	}
	return out
}

// CheckerOptions returns the merged "linters.<name>" section. Part of
// [checker.Options].
func (s *Settings) CheckerOptions(name string) map[string]any {
	linters, _ := s.Get("linters", nil).(map[string]any)
	opts, _ := linters[name].(map[string]any)
	if opts == nil {
		return map[string]any{}
	}
	return opts
}

// LintDelay returns the global debounce delay. Part of
// [schedule.DelaySource]; false when unset or non-positive.
func (s *Settings) LintDelay() (time.Duration, bool) {
	seconds, ok := toFloat(s.Get("delay", nil))
	if !ok || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// Teardown stops watching the settings file.
func (s *Settings) Teardown() {
	s.mu.Lock()
	unwatch := s.unwatch
	s.unwatch = nil
	s.mu.Unlock()
	if unwatch != nil {
		unwatch()
	}
}

// platformName maps the runtime OS to the platform keys used by the
// python_paths setting.
func platformName() string {
	switch runtime.GOOS {
	case "darwin":
		return "osx"
	case "windows":
		return "windows"
	default:
		return "linux"
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func settingEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
