package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/radiusdt/vector-insights/internal/models"
)

// FileDocumentStore persists aggregate documents as JSON files under a
// base directory. References are file names relative to that
// directory; path traversal is rejected.
type FileDocumentStore struct {
	dir string
}

// NewFileDocumentStore creates the base directory if needed.
func NewFileDocumentStore(dir string) (*FileDocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create document dir: %w", err)
	}
	return &FileDocumentStore{dir: dir}, nil
}

// NewDocumentRef mints a unique reference for a new document.
func NewDocumentRef() string {
	return "report_" + uuid.NewString() + ".json"
}

func (s *FileDocumentStore) path(ref string) (string, error) {
	clean := filepath.Base(filepath.Clean(ref))
	if clean != ref || strings.Contains(ref, "..") {
		return "", fmt.Errorf("invalid document ref %q", ref)
	}
	return filepath.Join(s.dir, clean), nil
}

func (s *FileDocumentStore) SaveDocument(ctx context.Context, ref string, doc *models.AggregateDocument) error {
	p, err := s.path(ref)
	if err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	// Write-then-rename keeps a concurrent aggregation read from
	// seeing a half-written file.
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize document: %w", err)
	}
	return nil
}

func (s *FileDocumentStore) LoadDocument(ctx context.Context, ref string) (*models.AggregateDocument, error) {
	p, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	var doc models.AggregateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

func (s *FileDocumentStore) DeleteDocument(ctx context.Context, ref string) error {
	p, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
