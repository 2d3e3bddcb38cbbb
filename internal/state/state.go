// Package state holds the plugin's process-wide shared state: per-document
// issues, highlights, checker assignments and document bindings, plus the
// module search path and the resolved gutter marks.
//
// A single State is constructed at process start and passed by reference to
// every subsystem. Writes follow single-writer-per-key discipline (only the
// checking subsystem writes issues for a document, only the assigner writes
// its checker set); the mutex exists because Go maps are not safe for
// concurrent mutation, not to serialize subsystems against each other.
package state

import (
	"slices"
	"sync"

	"github.com/simonzack/sublimelint/internal/checker"
	"github.com/simonzack/sublimelint/internal/gutter"
)

// DocumentHandle is the back-reference to a host document. The host's
// document model is opaque to the core.
type DocumentHandle interface {
	// ID returns the opaque document identifier.
	ID() string

	// Path returns the document's file path, empty for unsaved buffers.
	Path() string

	// Syntax returns the host syntax assigned to the document.
	Syntax() string
}

// State is the plugin's shared state store. Lifecycle: created once at
// process start, torn down on plugin unload.
type State struct {
	mu         sync.RWMutex
	issues     map[string][]checker.Issue
	highlights map[string]*HighlightSet
	checkers   map[string][]checker.Instance
	bindings   map[string]DocumentHandle
	searchPath []string
	marks      gutter.Marks
}

// New creates an empty state store.
func New() *State {
	return &State{
		issues:     make(map[string][]checker.Issue),
		highlights: make(map[string]*HighlightSet),
		checkers:   make(map[string][]checker.Instance),
		bindings:   make(map[string]DocumentHandle),
		marks:      gutter.DefaultMarks(),
	}
}

// SetIssues replaces the stored issues for a document. Issues are sorted by
// position before storing. Owned by the checking subsystem.
func (s *State) SetIssues(docID string, issues []checker.Issue) {
	checker.SortIssues(issues)
	s.mu.Lock()
	s.issues[docID] = issues
	s.mu.Unlock()
}

// Issues returns the stored issues for a document, false if none are
// recorded.
func (s *State) Issues(docID string) ([]checker.Issue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issues, ok := s.issues[docID]
	return issues, ok
}

// SetHighlights replaces the highlight set for a document. Owned by the
// rendering subsystem.
func (s *State) SetHighlights(docID string, hs *HighlightSet) {
	s.mu.Lock()
	s.highlights[docID] = hs
	s.mu.Unlock()
}

// Highlights returns the highlight set for a document, false if none.
func (s *State) Highlights(docID string) (*HighlightSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hs, ok := s.highlights[docID]
	return hs, ok
}

// SetCheckers replaces the checker instances assigned to a document. Owned
// by the assignment logic; State implements [checker.Store].
func (s *State) SetCheckers(docID string, instances []checker.Instance) {
	s.mu.Lock()
	s.checkers[docID] = instances
	s.mu.Unlock()
}

// Checkers returns the checker instances assigned to a document.
func (s *State) Checkers(docID string) []checker.Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkers[docID]
}

// ClearCheckers drops every checker assignment. Called before a full
// reassignment when the syntax map changes.
func (s *State) ClearCheckers() {
	s.mu.Lock()
	s.checkers = make(map[string][]checker.Instance)
	s.mu.Unlock()
}

// Bind records the back-reference from a document ID to its host handle.
func (s *State) Bind(doc DocumentHandle) {
	s.mu.Lock()
	s.bindings[doc.ID()] = doc
	s.mu.Unlock()
}

// Binding returns the host handle for a document, false if not bound.
func (s *State) Binding(docID string) (DocumentHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.bindings[docID]
	return doc, ok
}

// Documents returns assignment info for every bound document.
func (s *State) Documents() []checker.DocumentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]checker.DocumentInfo, 0, len(s.bindings))
	for _, doc := range s.bindings {
		docs = append(docs, checker.DocumentInfo{
			ID:     doc.ID(),
			Path:   doc.Path(),
			Syntax: doc.Syntax(),
		})
	}
	return docs
}

// Purge removes every per-document entry for a closed document. Subsequent
// lookups return absent.
func (s *State) Purge(docID string) {
	s.mu.Lock()
	delete(s.issues, docID)
	delete(s.highlights, docID)
	delete(s.checkers, docID)
	delete(s.bindings, docID)
	s.mu.Unlock()
}

// AppendSearchPath appends entries to the module search path, skipping ones
// already present. Checkers consult the search path to locate interpreters
// and helper modules.
func (s *State) AppendSearchPath(paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		if !slices.Contains(s.searchPath, p) {
			s.searchPath = append(s.searchPath, p)
		}
	}
}

// SearchPath returns a copy of the module search path.
func (s *State) SearchPath() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.searchPath)
}

// SetGutterMarks replaces the resolved gutter mark info.
func (s *State) SetGutterMarks(marks gutter.Marks) {
	s.mu.Lock()
	s.marks = marks
	s.mu.Unlock()
}

// GutterMarks returns the resolved gutter mark info.
func (s *State) GutterMarks() gutter.Marks {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marks
}

// Teardown clears all state on plugin unload.
func (s *State) Teardown() {
	s.mu.Lock()
	s.issues = make(map[string][]checker.Issue)
	s.highlights = make(map[string]*HighlightSet)
	s.checkers = make(map[string][]checker.Instance)
	s.bindings = make(map[string]DocumentHandle)
	s.searchPath = nil
	s.mu.Unlock()
}
