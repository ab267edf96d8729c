// Package memory provides an in-process asset and metadata store for tests
// and local runs.
package memory

import (
	"context"
	"strings"
	"sync"
)

// Object is a stored blob.
type Object struct {
	Data        []byte
	ContentType string
}

// Store keeps uploaded objects in a map and serves them under BaseURL.
type Store struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string

	// UploadErr, if set, is returned by Upload.
	UploadErr error
	// PublishErr, if set, is returned by Publish.
	PublishErr error
}

// NewStore creates an empty store. URIs are baseURL + "/" + key.
func NewStore(baseURL string) *Store {
	if baseURL == "" {
		baseURL = "memory://assets"
	}
	return &Store{
		objects: make(map[string]Object),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload stores data under key.
func (s *Store) Upload(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if s.UploadErr != nil {
		return "", s.UploadErr
	}
	return s.put(key, data, contentType), nil
}

// Publish stores a JSON document under key.
func (s *Store) Publish(_ context.Context, key string, document []byte) (string, error) {
	if s.PublishErr != nil {
		return "", s.PublishErr
	}
	return s.put(key, document, "application/json"), nil
}

func (s *Store) put(key string, data []byte, contentType string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return s.baseURL + "/" + key
}

// Get returns the object stored under key.
func (s *Store) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Count returns the number of stored objects.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
