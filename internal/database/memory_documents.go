package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryDocumentStore is an in-process DocumentStore. It round-trips fields
// through JSON so readers see the same value types the JSONB store returns.
type MemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string]memoryDocument
}

type memoryDocument struct {
	raw       []byte
	updatedAt time.Time
}

// NewMemoryDocumentStore creates an empty in-memory store
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{docs: make(map[string]memoryDocument)}
}

func (s *MemoryDocumentStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	stored, ok := s.docs[collection+"/"+id]
	s.mu.RUnlock()

	doc := &Document{Collection: collection, ID: id}
	if !ok {
		return doc, nil
	}
	fields, err := decodeFields(stored.raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}
	doc.Exists = true
	doc.Fields = fields
	doc.UpdatedAt = stored.updatedAt
	return doc, nil
}

func (s *MemoryDocumentStore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if fields == nil {
		fields = map[string]any{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[collection+"/"+id] = memoryDocument{raw: raw, updatedAt: time.Now().UTC()}
	return nil
}

var _ DocumentStore = (*MemoryDocumentStore)(nil)
