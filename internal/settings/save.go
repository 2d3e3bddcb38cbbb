package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	kmaps "github.com/knadh/koanf/maps"
)

// Save regenerates and persists the user settings file.
//
// The merged settings are completed with the defaults of every registered
// checker (ensuring each has an explicit "@disable"), wrapped in a top-level
// "user" object and written with 4-space indentation and sorted keys.
func (s *Settings) Save() error {
	if err := s.Load(false); err != nil {
		return err
	}

	s.mu.RLock()
	merged := kmaps.Copy(s.current)
	s.mu.RUnlock()

	linters, _ := merged["linters"].(map[string]any)
	if linters == nil {
		linters = map[string]any{}
	}
	if s.registry != nil {
		for _, desc := range s.registry.All() {
			opts := kmapsCopyAny(desc.Defaults)
			if existing, ok := linters[desc.Name].(map[string]any); ok {
				for k, v := range existing {
					opts[k] = v
				}
			}
			if _, ok := opts["@disable"]; !ok {
				opts["@disable"] = false
			}
			linters[desc.Name] = opts
		}
	}
	merged["linters"] = linters

	data, err := Encode(merged)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Encode renders settings in the persisted file format: a {"user": ...}
// JSON document with 4-space indentation, sorted keys and no trailing
// spaces before newlines.
func Encode(settings map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(map[string]any{"user": settings}, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	data = bytes.ReplaceAll(data, []byte(" \n"), []byte("\n"))
	return append(data, '\n'), nil
}
