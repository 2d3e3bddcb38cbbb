// Package gutter resolves gutter mark themes: the icons drawn alongside
// lines that have issues.
//
// Themes are directories containing warning.png and error.png, plus an
// optional "colorize" marker file telling the host to tint the icons.
// User themes override the themes the plugin ships with; a missing theme
// falls back to the built-in Default with a user-visible warning.
package gutter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// DefaultTheme is the built-in fallback theme name.
const DefaultTheme = "Default"

// Notifier surfaces user-visible messages through the host. Implemented by
// the host server.
type Notifier interface {
	// Warn shows a non-blocking warning.
	Warn(message string)

	// Error shows a blocking error notification.
	Error(message string)
}

// Marks is the resolved gutter mark info. Empty icon paths disable gutter
// marks entirely.
type Marks struct {
	// Warning is the icon path for warning-severity issues.
	Warning string

	// Error is the icon path for error-severity issues.
	Error string

	// Colorize tells the host to tint the icons per severity.
	Colorize bool
}

// Disabled reports whether gutter marks are turned off.
func (m Marks) Disabled() bool {
	return m.Warning == "" && m.Error == ""
}

// DefaultMarks is the pre-resolution placeholder used until settings load.
func DefaultMarks() Marks {
	return Marks{Warning: DefaultTheme, Error: DefaultTheme, Colorize: true}
}

// Resolver locates gutter themes on disk.
type Resolver struct {
	// UserDir is the user theme directory (overrides plugin themes).
	UserDir string

	// PluginDir is the directory of themes the plugin ships with.
	PluginDir string

	// Notifier receives user-visible messages. Nil means log-only.
	Notifier Notifier

	log *logrus.Entry
}

// NewResolver creates a theme resolver.
func NewResolver(userDir, pluginDir string, notifier Notifier) *Resolver {
	return &Resolver{
		UserDir:   userDir,
		PluginDir: pluginDir,
		Notifier:  notifier,
		log:       logrus.WithField("component", "gutter"),
	}
}

// Resolve returns the marks for a theme name. "none" disables marks without
// touching the filesystem. A theme that cannot be found falls back to the
// built-in Default with a warning; if even Default is unavailable, marks are
// disabled and a blocking notification is shown.
func (r *Resolver) Resolve(theme string) Marks {
	if theme == "" {
		theme = DefaultTheme
	}
	if theme == "none" || theme == "None" {
		return Marks{}
	}

	candidates := []string{
		filepath.Join(r.UserDir, theme),
		filepath.Join(r.PluginDir, theme),
		filepath.Join(r.PluginDir, DefaultTheme),
	}

	var themeDir string
	for _, dir := range candidates {
		if dirExists(dir) {
			themeDir = dir
			break
		}
	}

	if themeDir == "" {
		msg := fmt.Sprintf(
			"cannot find the gutter theme %q, and the default is also not available; no gutter marks will display",
			theme)
		r.log.Error(msg)
		if r.Notifier != nil {
			r.Notifier.Error(msg)
		}
		return Marks{}
	}

	if theme != DefaultTheme && filepath.Base(themeDir) == DefaultTheme {
		msg := fmt.Sprintf("cannot find the gutter theme %q, using the default", theme)
		r.log.Warn(msg)
		if r.Notifier != nil {
			r.Notifier.Warn(msg)
		}
	}

	return Marks{
		Warning:  filepath.Join(themeDir, "warning.png"),
		Error:    filepath.Join(themeDir, "error.png"),
		Colorize: fileExists(filepath.Join(themeDir, "colorize")),
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
