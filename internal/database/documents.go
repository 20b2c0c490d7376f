package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Document is a schemaless record addressed by collection and id
type Document struct {
	Collection string
	ID         string
	// Exists is false when no record is stored under the key
	Exists    bool
	Fields    map[string]any
	UpdatedAt time.Time
}

// DocumentStore reads and replaces documents
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Set(ctx context.Context, collection, id string, fields map[string]any) error
}

// DocumentRepository stores documents as JSONB rows
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Get retrieves a document. A missing document is not an error; it is
// returned with Exists false and no fields.
func (r *DocumentRepository) Get(ctx context.Context, collection, id string) (*Document, error) {
	query := `
		SELECT fields, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`

	var raw []byte
	doc := &Document{Collection: collection, ID: id}
	err := r.db.QueryRowContext(ctx, query, collection, id).Scan(&raw, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}

	fields, err := decodeFields(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document %s/%s: %w", collection, id, err)
	}
	doc.Exists = true
	doc.Fields = fields
	return doc, nil
}

// Set replaces the document's fields, creating it if needed.
// The original creation time of the row is kept.
func (r *DocumentRepository) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if fields == nil {
		fields = map[string]any{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, id, err)
	}

	query := `
		INSERT INTO documents (collection, id, fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (collection, id) DO UPDATE
		SET fields = EXCLUDED.fields,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, collection, id, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, id, err)
	}
	return nil
}

// decodeFields keeps numbers as json.Number so integers survive the round trip
func decodeFields(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(raw) == 0 {
		return fields, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

var _ DocumentStore = (*DocumentRepository)(nil)
