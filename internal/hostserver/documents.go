package hostserver

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/simonzack/sublimelint/internal/settings"
)

// Document is an open document tracked by the server. Snapshots handed out
// by the store are copies; only the store mutates its internal records.
type Document struct {
	URI        string
	LanguageID string
	Version    int32
	Content    string

	// LastHit is the timestamp of the most recent accepted scheduler hit,
	// used to detect superseded lint callbacks.
	LastHit time.Time
}

// ID implements the state and scheduler document views.
func (d *Document) ID() string { return d.URI }

// Path returns the document's file path, empty for non-file URIs.
func (d *Document) Path() string { return uriToPath(d.URI) }

// Syntax returns the host syntax for checker assignment.
func (d *Document) Syntax() string { return d.LanguageID }

// DelayOverride reads the per-document debounce delay from the closest rc
// file, if any.
func (d *Document) DelayOverride() (time.Duration, bool) {
	return settings.RCDelay(d.Path())
}

// DocumentStore tracks the documents the editor has open.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Open records a newly opened document.
func (s *DocumentStore) Open(uri, languageID string, version int32, text string) *Document {
	doc := &Document{URI: uri, LanguageID: languageID, Version: version, Content: text}
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

// Update replaces a document's content. Unknown URIs are ignored.
func (s *DocumentStore) Update(uri string, version int32, text string) {
	s.mu.Lock()
	if doc, ok := s.docs[uri]; ok {
		if version != 0 {
			doc.Version = version
		}
		doc.Content = text
	}
	s.mu.Unlock()
}

// RecordHit stores the timestamp of an accepted scheduler hit.
func (s *DocumentStore) RecordHit(uri string, at time.Time) {
	s.mu.Lock()
	if doc, ok := s.docs[uri]; ok {
		doc.LastHit = at
	}
	s.mu.Unlock()
}

// Get returns a snapshot of a document, nil when not open.
func (s *DocumentStore) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[uri]
	if !ok {
		return nil
	}
	snapshot := *doc
	return &snapshot
}

// Close forgets a document.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// All returns snapshots of every open document.
func (s *DocumentStore) All() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]*Document, 0, len(s.docs))
	for _, doc := range s.docs {
		snapshot := *doc
		docs = append(docs, &snapshot)
	}
	return docs
}

// uriToPath converts a file:// URI to a local file path. Non-file URIs
// yield an empty path.
func uriToPath(docURI string) string {
	if !strings.HasPrefix(docURI, "file://") {
		return ""
	}
	parsed, err := url.Parse(docURI)
	if err != nil {
		return strings.TrimPrefix(docURI, "file://")
	}
	path := parsed.Path
	if runtime.GOOS == "windows" {
		// UNC paths: file://server/share/path -> //server/share/path.
		if parsed.Host != "" {
			path = `//` + parsed.Host + path
		}
		// Drive-letter paths: file:///C:/path -> strip the leading slash.
		if len(path) > 2 && path[0] == '/' && path[2] == ':' {
			path = path[1:]
		}
	}
	return filepath.FromSlash(path)
}
