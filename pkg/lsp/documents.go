package lsp

import (
	"strings"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// normalizeURI strips the file scheme so every lookup keys on a clean path.
func normalizeURI(uri string) string {
	uri = strings.TrimPrefix(uri, "file://")
	uri = strings.TrimPrefix(uri, "file:")
	return uri
}

// Document is one open text document snapshot.
type Document struct {
	URI        string
	LanguageID string
	Version    int32
	Content    string
}

// DocumentManager tracks open documents. Safe for concurrent use.
type DocumentManager struct {
	docs sync.Map // normalized uri -> *Document
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{}
}

// Store records a document snapshot, replacing any previous version.
func (m *DocumentManager) Store(doc *Document) {
	m.docs.Store(normalizeURI(doc.URI), doc)
}

// Get returns the document for a URI.
func (m *DocumentManager) Get(uri string) (*Document, bool) {
	v, ok := m.docs.Load(normalizeURI(uri))
	if !ok {
		return nil, false
	}
	return v.(*Document), true
}

// MustGet returns the document or an error naming the URI.
func (m *DocumentManager) MustGet(uri string) (*Document, error) {
	doc, ok := m.Get(uri)
	if !ok {
		return nil, errors.Errorf("document not open: %s", uri)
	}
	return doc, nil
}

// Delete forgets a document.
func (m *DocumentManager) Delete(uri string) {
	m.docs.Delete(normalizeURI(uri))
}

// Len counts open documents.
func (m *DocumentManager) Len() int {
	n := 0
	m.docs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
