package settings

import (
	"path/filepath"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// RCFileName is the per-project settings file discovered next to (or above)
// a document.
const RCFileName = ".sublimelintrc"

// DiscoverRC finds the closest rc file for a document path by walking up
// the directory tree. Returns empty string when there is none.
func DiscoverRC(docPath string) string {
	absPath, err := filepath.Abs(docPath)
	if err != nil {
		return ""
	}

	dir := filepath.Dir(absPath)
	for {
		rcPath := filepath.Join(dir, RCFileName)
		if fileExists(rcPath) {
			return rcPath
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// LoadRC reads the closest rc file for a document path. A missing or
// malformed rc file yields nil; rc files never fail a check.
func LoadRC(docPath string) map[string]any {
	rcPath := DiscoverRC(docPath)
	if rcPath == "" {
		return nil
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(rcPath), kjson.Parser()); err != nil {
		return nil
	}
	return k.Raw()
}

// RCDelay returns the per-document debounce delay override from the closest
// rc file, false when none is configured.
func RCDelay(docPath string) (time.Duration, bool) {
	if docPath == "" {
		return 0, false
	}
	rc := LoadRC(docPath)
	if rc == nil {
		return 0, false
	}
	seconds, ok := toFloat(rc["delay"])
	if !ok || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}
