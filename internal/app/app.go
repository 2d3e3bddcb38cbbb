// Package app wires the plugin core together: state store, checker
// registry, settings, gutter theme resolution and the lint daemon are
// constructed exactly once, in a documented order, and passed by reference
// to whoever needs them. Nothing in this module keeps package-level mutable
// state.
package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/simonzack/sublimelint/internal/checker"
	"github.com/simonzack/sublimelint/internal/checker/builtin"
	"github.com/simonzack/sublimelint/internal/gutter"
	"github.com/simonzack/sublimelint/internal/schedule"
	"github.com/simonzack/sublimelint/internal/settings"
	"github.com/simonzack/sublimelint/internal/state"
)

// Options configures application construction. Zero values pick sensible
// locations under the user config directory.
type Options struct {
	// SettingsPath is the user settings file.
	SettingsPath string

	// UserThemeDir holds user gutter themes (override plugin themes).
	UserThemeDir string

	// PluginThemeDir holds the gutter themes the plugin ships with.
	PluginThemeDir string
}

// App owns the plugin core. Construction order: state store, checker
// registry (with builtin checkers), gutter resolver, settings store,
// assigner, daemon. Settings reactions are wired back to the app itself.
type App struct {
	State     *state.State
	Registry  *checker.Registry
	Settings  *settings.Settings
	Assigner  *checker.Assigner
	Daemon    *schedule.Daemon
	PathCache *checker.PathCache

	gutter *gutter.Resolver
	log    *logrus.Entry
}

// New constructs the application core. The daemon is created stopped; call
// Start once a lint callback exists.
func New(opts Options) *App {
	applyDefaultPaths(&opts)

	st := state.New()

	registry := checker.NewRegistry()
	builtin.Register(registry)

	cfg := settings.New(opts.SettingsPath, registry)

	a := &App{
		State:     st,
		Registry:  registry,
		Settings:  cfg,
		PathCache: checker.NewPathCache(),
		gutter:    gutter.NewResolver(opts.UserThemeDir, opts.PluginThemeDir, nil),
		log:       logrus.WithField("component", "app"),
	}
	a.Assigner = checker.NewAssigner(registry, cfg, st)
	a.Daemon = schedule.New(cfg)

	cfg.SetReactor(a)
	cfg.OnUpdateCall(a)
	return a
}

// SetNotifier routes user-visible gutter theme messages through the host.
// Must be called before Start.
func (a *App) SetNotifier(n gutter.Notifier) {
	a.gutter.Notifier = n
}

// Start launches the daemon and loads settings. callback receives the
// debounced lint requests.
func (a *App) Start(ctx context.Context, callback schedule.Callback) error {
	a.Daemon.Start(ctx, callback)
	return a.Settings.Load(false)
}

// Teardown releases everything on plugin unload. The daemon worker exits
// with the context passed to Start.
func (a *App) Teardown() {
	a.Settings.Teardown()
	a.State.Teardown()
}

// RelintAll re-schedules a check of every bound document. Part of
// [settings.Reactor].
func (a *App) RelintAll() {
	for _, info := range a.State.Documents() {
		if handle, ok := a.State.Binding(info.ID); ok {
			a.Daemon.Hit(boundDocument{handle})
		}
	}
}

// ClearCaches drops derived caches. Part of [settings.Reactor].
func (a *App) ClearCaches() {
	a.PathCache.Clear()
}

// ReassignAll clears all checker assignments and recomputes them for every
// open document. Part of [settings.Reactor].
func (a *App) ReassignAll() {
	a.State.ClearCheckers()
	a.Assigner.ReassignAll(a.State.Documents())
}

// AppendSearchPath idempotently extends the module search path. Part of
// [settings.Reactor].
func (a *App) AppendSearchPath(paths []string) {
	a.State.AppendSearchPath(paths)
}

// UpdateGutterTheme re-resolves gutter marks. Part of [settings.Reactor].
func (a *App) UpdateGutterTheme(theme string) {
	a.State.SetGutterMarks(a.gutter.Resolve(theme))
}

// SettingsUpdated applies cross-cutting settings after each reconciliation.
// Part of [settings.Observer].
func (a *App) SettingsUpdated(relinted bool) {
	if a.Settings.Debug() {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	a.log.Debugf("settings updated, relinted=%v", relinted)
}

// boundDocument adapts a state binding to the scheduler's document view.
type boundDocument struct {
	handle state.DocumentHandle
}

func (b boundDocument) ID() string { return b.handle.ID() }

func (b boundDocument) DelayOverride() (time.Duration, bool) {
	return settings.RCDelay(b.handle.Path())
}

func applyDefaultPaths(opts *Options) {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	root := filepath.Join(base, "sublimelint")
	if opts.SettingsPath == "" {
		opts.SettingsPath = filepath.Join(root, settings.FileName)
	}
	if opts.UserThemeDir == "" {
		opts.UserThemeDir = filepath.Join(root, "gutter-themes")
	}
	if opts.PluginThemeDir == "" {
		opts.PluginThemeDir = filepath.Join(root, "default-gutter-themes")
	}
}
