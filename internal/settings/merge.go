package settings

import (
	"os"
	"strconv"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultSettings holds the built-in defaults for every recognized option.
type DefaultSettings struct {
	// Disable turns the whole plugin off.
	Disable bool `json:"@disable" koanf:"@disable"`

	// Paths is where checker executables are searched for.
	Paths []string `json:"paths" koanf:"paths"`

	// PythonPaths maps a platform name to interpreter paths appended to the
	// module search path.
	PythonPaths map[string][]string `json:"python_paths" koanf:"python_paths"`

	// SyntaxMap redirects host syntaxes to checker languages.
	SyntaxMap map[string]string `json:"syntax_map" koanf:"syntax_map"`

	// Linters holds per-checker settings keyed by checker name.
	Linters map[string]map[string]any `json:"linters" koanf:"linters"`

	// GutterTheme selects the gutter mark icon theme.
	GutterTheme string `json:"gutter_theme" koanf:"gutter_theme"`

	// Delay is the debounce delay in seconds. Zero falls back to the
	// scheduler minimum.
	Delay float64 `json:"delay" koanf:"delay"`

	// Debug enables verbose logging.
	Debug bool `json:"debug" koanf:"debug"`
}

// Default returns the built-in defaults.
func Default() DefaultSettings {
	return DefaultSettings{
		Paths:       []string{},
		PythonPaths: map[string][]string{},
		SyntaxMap:   map[string]string{},
		Linters:     map[string]map[string]any{},
		GutterTheme: "Default",
	}
}

// merge produces the effective settings: defaults, then per-checker
// defaults, then the user settings file, then environment overrides.
func (s *Settings) merge() (map[string]any, error) {
	k := koanf.New(".")

	// 1. Built-in defaults.
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	// 2. Per-checker defaults from the registry.
	if s.registry != nil {
		defaults := map[string]any{}
		for _, desc := range s.registry.All() {
			defaults[desc.Name] = kmapsCopyAny(desc.Defaults)
		}
		if err := k.Load(confmap.Provider(map[string]any{"linters": defaults}, "."), nil); err != nil {
			return nil, err
		}
	}

	// 3. The user settings file. The persisted format wraps everything in a
	// top-level "user" object, so load it apart and merge the subtree.
	if s.path != "" && fileExists(s.path) {
		user := koanf.New(".")
		if err := user.Load(file.Provider(s.path), kjson.Parser()); err != nil {
			s.log.Warnf("cannot read %s: %v", s.path, err)
		} else if err := k.Merge(user.Cut("user")); err != nil {
			return nil, err
		}
	}

	// 4. Environment overrides (SUBLIMELINT_DELAY -> delay, etc.).
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKeyTransform,
	}), nil); err != nil {
		return nil, err
	}

	return k.Raw(), nil
}

// envOverrideKeys maps environment suffixes to the scalar settings they may
// override. List-valued settings can't be expressed as env vars and are
// ignored.
var envOverrideKeys = map[string]string{
	"DISABLE":      "@disable",
	"GUTTER_THEME": "gutter_theme",
	"DELAY":        "delay",
	"DEBUG":        "debug",
}

// envKeyTransform converts environment variable names to setting keys and
// coerces scalar values. Unknown variables are dropped.
func envKeyTransform(k, v string) (string, any) {
	key, ok := envOverrideKeys[strings.TrimPrefix(k, EnvPrefix)]
	if !ok {
		return "", nil
	}
	switch key {
	case "@disable", "debug":
		b, err := strconv.ParseBool(v)
		if err != nil {
			return "", nil
		}
		return key, b
	case "delay":
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return "", nil
		}
		return key, f
	default:
		return key, v
	}
}

// kmapsCopyAny copies a per-checker defaults map so registry defaults are
// never aliased into the merged settings.
func kmapsCopyAny(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
