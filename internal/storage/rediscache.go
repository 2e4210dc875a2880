package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/metrics"
	"github.com/radiusdt/vector-insights/internal/models"
)

const docKeyPrefix = "insights:doc:"

// CachedDocumentStore is a Redis read-through layer in front of any
// DocumentStore. Cache failures degrade to the underlying store and
// are never surfaced to callers.
type CachedDocumentStore struct {
	inner   DocumentStore
	client  *redis.Client
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewCachedDocumentStore(inner DocumentStore, client *redis.Client, ttl time.Duration, logger *zap.Logger, m *metrics.Metrics) *CachedDocumentStore {
	return &CachedDocumentStore{
		inner:   inner,
		client:  client,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

func (s *CachedDocumentStore) SaveDocument(ctx context.Context, ref string, doc *models.AggregateDocument) error {
	if err := s.inner.SaveDocument(ctx, ref, doc); err != nil {
		return err
	}
	s.fill(ctx, ref, doc)
	return nil
}

func (s *CachedDocumentStore) LoadDocument(ctx context.Context, ref string) (*models.AggregateDocument, error) {
	start := time.Now()
	data, err := s.client.Get(ctx, docKeyPrefix+ref).Bytes()
	if s.metrics != nil {
		s.metrics.RecordRedisLatency("get", time.Since(start))
	}
	if err == nil {
		var doc models.AggregateDocument
		if jsonErr := json.Unmarshal(data, &doc); jsonErr == nil {
			if s.metrics != nil {
				s.metrics.RecordDocCache(true)
			}
			return &doc, nil
		}
		// Corrupt cache entry; fall through to the store.
		s.client.Del(ctx, docKeyPrefix+ref)
	} else if err != redis.Nil {
		s.logger.Warn("redis document read failed", zap.String("ref", ref), zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.RecordDocCache(false)
	}
	doc, err := s.inner.LoadDocument(ctx, ref)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, ref, doc)
	return doc, nil
}

func (s *CachedDocumentStore) DeleteDocument(ctx context.Context, ref string) error {
	if err := s.client.Del(ctx, docKeyPrefix+ref).Err(); err != nil {
		s.logger.Warn("redis document delete failed", zap.String("ref", ref), zap.Error(err))
	}
	return s.inner.DeleteDocument(ctx, ref)
}

func (s *CachedDocumentStore) fill(ctx context.Context, ref string, doc *models.AggregateDocument) {
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	start := time.Now()
	if err := s.client.Set(ctx, docKeyPrefix+ref, data, s.ttl).Err(); err != nil {
		s.logger.Warn("redis document fill failed", zap.String("ref", ref), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordRedisLatency("set", time.Since(start))
	}
}
