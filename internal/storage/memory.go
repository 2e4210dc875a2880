package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/radiusdt/vector-insights/internal/models"
)

// InMemoryUploadRepo is the fallback upload store used when no
// database is configured. Records live for the process lifetime.
type InMemoryUploadRepo struct {
	mu      sync.RWMutex
	records []models.UploadRecord
	nextID  int64
}

// NewInMemoryUploadRepo creates an empty in-memory upload repo.
func NewInMemoryUploadRepo() *InMemoryUploadRepo {
	return &InMemoryUploadRepo{nextID: 1}
}

func (r *InMemoryUploadRepo) List(ctx context.Context) ([]models.UploadRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.UploadRecord, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *InMemoryUploadRepo) Get(ctx context.Context, id int64) (*models.UploadRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.records {
		if r.records[i].ID == id {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryUploadRepo) Append(ctx context.Context, rec models.UploadRecord) (models.UploadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = r.nextID
	r.nextID++
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *InMemoryUploadRepo) Delete(ctx context.Context, id int64) (*models.UploadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].ID == id {
			rec := r.records[i]
			r.records = append(r.records[:i], r.records[i+1:]...)
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryUploadRepo) Clear(ctx context.Context) ([]models.UploadRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := r.records
	r.records = nil
	return removed, nil
}

func (r *InMemoryUploadRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

// InMemoryDocumentStore keeps serialized documents in a map. Documents
// are stored as JSON bytes so loads return independent copies.
type InMemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewInMemoryDocumentStore creates an empty in-memory document store.
func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{docs: make(map[string][]byte)}
}

func (s *InMemoryDocumentStore) SaveDocument(ctx context.Context, ref string, doc *models.AggregateDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[ref] = data
	return nil
}

func (s *InMemoryDocumentStore) LoadDocument(ctx context.Context, ref string) (*models.AggregateDocument, error) {
	s.mu.RLock()
	data, ok := s.docs[ref]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var doc models.AggregateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

func (s *InMemoryDocumentStore) DeleteDocument(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, ref)
	return nil
}
