package settings

import kmaps "github.com/knadh/koanf/maps"

// Reconcile re-merges the external configuration and reacts to what changed
// since the last externally observed state.
//
// Each reaction is decided independently; at most one relint is issued per
// pass no matter how many conditions asked for it. Running Reconcile twice
// with identical external configuration triggers nothing the second time,
// because previous equals current after the first pass.
func (s *Settings) Reconcile() error {
	merged, err := s.merge()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.previous = kmaps.Copy(s.current)
	s.current = merged
	prev, cur := s.previous, s.current
	reactor := s.reactor
	observer := s.observer
	s.mu.Unlock()

	needRelint := !settingEqual(prev["@disable"], cur["@disable"])

	if !settingEqual(prev["paths"], cur["paths"]) {
		needRelint = true
		if reactor != nil {
			reactor.ClearCaches()
		}
	}

	if !settingEqual(prev["python_paths"], cur["python_paths"]) {
		needRelint = true
		if reactor != nil {
			reactor.AppendSearchPath(platformPaths(cur))
		}
	}

	if !settingEqual(prev["syntax_map"], cur["syntax_map"]) {
		needRelint = true
		if reactor != nil {
			reactor.ReassignAll()
		}
	}

	if !needRelint && !settingEqual(prev["linters"], cur["linters"]) {
		needRelint = true
	}

	if !settingEqual(prev["gutter_theme"], cur["gutter_theme"]) {
		if reactor != nil {
			theme, _ := cur["gutter_theme"].(string)
			reactor.UpdateGutterTheme(theme)
		}
	}

	if needRelint && reactor != nil {
		reactor.RelintAll()
	}

	if observer != nil {
		observer.SettingsUpdated(needRelint)
	}
	return nil
}

// platformPaths extracts the python_paths entries for the current platform.
func platformPaths(cur map[string]any) []string {
	byPlatform, _ := cur["python_paths"].(map[string]any)
	if byPlatform == nil {
		return nil
	}
	switch v := byPlatform[platformName()].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
