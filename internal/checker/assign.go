package checker

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
)

// syntaxRe extracts the syntax name from a host syntax definition path,
// e.g. "Packages/Python/Python.tmLanguage" -> "Python".
var syntaxRe = regexp.MustCompile(`/([^/]+)\.tmLanguage$`)

// LanguageForSyntax returns the language a host syntax maps to.
//
// The syntax definition path is reduced to its lowercase basename, then the
// user's syntax map may redirect it to another language (e.g. mapping
// "html (django)" to "html"). An empty result means the syntax is unknown.
func LanguageForSyntax(syntaxMap map[string]string, syntax string) string {
	if syntax == "" {
		return ""
	}

	name := syntax
	if m := syntaxRe.FindStringSubmatch(syntax); m != nil {
		name = m[1]
	} else if strings.ContainsAny(syntax, "/\\") {
		// A path that doesn't look like a syntax definition maps to nothing.
		return ""
	}
	name = strings.ToLower(name)

	if mapped, ok := syntaxMap[name]; ok && mapped != "" {
		return strings.ToLower(mapped)
	}
	return name
}

// Options exposes the settings the assigner consults. Implemented by the
// settings store.
type Options interface {
	// Disabled reports the global "@disable" flag.
	Disabled() bool

	// SyntaxMap returns the syntax_map setting.
	SyntaxMap() map[string]string

	// CheckerOptions returns the merged "linters.<name>" settings section.
	CheckerOptions(name string) map[string]any
}

// Store receives computed assignments. Implemented by the state store.
type Store interface {
	SetCheckers(docID string, instances []Instance)
}

// DocumentInfo identifies an open document for assignment purposes.
type DocumentInfo struct {
	ID     string
	Path   string
	Syntax string
}

// Assigner computes which checkers apply to which documents.
type Assigner struct {
	registry *Registry
	options  Options
	store    Store
	log      *logrus.Entry
}

// NewAssigner creates an assigner backed by the given registry, settings and
// state store.
func NewAssigner(registry *Registry, options Options, store Store) *Assigner {
	return &Assigner{
		registry: registry,
		options:  options,
		store:    store,
		log:      logrus.WithField("component", "assign"),
	}
}

// Assign recomputes the checker instances for one document and stores them.
// It returns the computed instances.
func (a *Assigner) Assign(doc DocumentInfo) []Instance {
	var instances []Instance

	if !a.options.Disabled() {
		language := LanguageForSyntax(a.options.SyntaxMap(), doc.Syntax)
		for _, desc := range a.registry.ForLanguage(language) {
			opts := a.options.CheckerOptions(desc.Name)
			if optBool(opts, "@disable") {
				continue
			}
			if excluded(opts, doc.Path) {
				continue
			}
			instances = append(instances, Instance{
				Descriptor: desc,
				Checker:    desc.Factory(),
			})
		}
	}

	a.store.SetCheckers(doc.ID, instances)
	if len(instances) > 0 {
		a.log.WithField("doc", doc.ID).Debugf("assigned %d checker(s)", len(instances))
	}
	return instances
}

// ReassignAll recomputes assignments for every open document. Called when the
// syntax map or the checker registry changes.
func (a *Assigner) ReassignAll(docs []DocumentInfo) {
	for _, doc := range docs {
		a.Assign(doc)
	}
}

// excluded reports whether the checker's "excludes" globs match the document
// path. Patterns are matched against the slash form of the path; a malformed
// pattern never matches.
func excluded(opts map[string]any, path string) bool {
	if path == "" {
		return false
	}
	patterns, ok := opts["excludes"]
	if !ok {
		return false
	}
	target := filepath.ToSlash(path)
	for _, p := range toStrings(patterns) {
		if ok, err := doublestar.Match(p, target); err == nil && ok {
			return true
		}
	}
	return false
}

func optBool(opts map[string]any, key string) bool {
	v, ok := opts[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// toStrings normalizes a settings list value, which arrives as []any from
// JSON decoding or []string from defaults.
func toStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
