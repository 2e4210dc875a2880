// Package dashboard orchestrates the upload pipeline and the
// aggregated read paths consumed by the HTTP layer.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/aggregate"
	"github.com/radiusdt/vector-insights/internal/metrics"
	"github.com/radiusdt/vector-insights/internal/models"
	"github.com/radiusdt/vector-insights/internal/report"
	"github.com/radiusdt/vector-insights/internal/storage"
)

var (
	// ErrNotCSV rejects uploads without a .csv name.
	ErrNotCSV = errors.New("only CSV files are allowed")

	// ErrTooLarge rejects oversized payloads before parsing.
	ErrTooLarge = errors.New("file exceeds upload size limit")

	// ErrNotFound mirrors storage.ErrNotFound for the HTTP layer.
	ErrNotFound = storage.ErrNotFound
)

// Config carries the service tunables.
type Config struct {
	UploadDir string
	MaxBytes  int64
	Workers   int
}

// Service wires the processor, stores, aggregator and cache together.
type Service struct {
	logger    *zap.Logger
	metrics   *metrics.Metrics
	processor *report.Processor
	uploads   storage.UploadRepo
	docs      storage.DocumentStore
	cache     *aggregate.Cache
	sink      *storage.DailyStatsSink
	cfg       Config

	// sem bounds concurrent classify+compute work so CPU-bound
	// parsing cannot starve request handling.
	sem chan struct{}
	now func() time.Time
}

func NewService(
	logger *zap.Logger,
	m *metrics.Metrics,
	processor *report.Processor,
	uploads storage.UploadRepo,
	docs storage.DocumentStore,
	cache *aggregate.Cache,
	sink *storage.DailyStatsSink,
	cfg Config,
) *Service {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Service{
		logger:    logger,
		metrics:   m,
		processor: processor,
		uploads:   uploads,
		docs:      docs,
		cache:     cache,
		sink:      sink,
		cfg:       cfg,
		sem:       make(chan struct{}, workers),
		now:       time.Now,
	}
}

// UploadResult summarizes a processed upload.
type UploadResult struct {
	ReportID      int64                 `json:"report_id"`
	Category      models.ReportCategory `json:"csv_type"`
	RowsProcessed int                   `json:"rows_processed"`
}

// ProcessUpload runs the full pipeline for one uploaded file: save the
// raw payload, classify and compute, persist the aggregate document,
// and append the upload record. fileType overrides detection when it
// names a known category; "auto" or empty trusts detection.
func (s *Service) ProcessUpload(ctx context.Context, account, filename, fileType string, data []byte) (*UploadResult, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, ErrNotCSV
	}
	if s.cfg.MaxBytes > 0 && int64(len(data)) > s.cfg.MaxBytes {
		return nil, ErrTooLarge
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	if s.metrics != nil {
		s.metrics.UploadsInFlight.Inc()
		defer s.metrics.UploadsInFlight.Dec()
	}

	storedName := s.saveRawFile(account, filename, data)

	override := models.CategoryUnknown
	if fileType != "" && fileType != "auto" {
		override = models.ParseCategory(fileType)
	}

	doc, err := s.processor.ProcessAs(data, filename, override)
	if err != nil {
		return nil, err
	}

	ref := storage.NewDocumentRef()
	if err := s.docs.SaveDocument(ctx, ref, doc); err != nil {
		if s.metrics != nil {
			s.metrics.RecordDocumentWrite("primary", err)
		}
		return nil, fmt.Errorf("failed to persist document: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordDocumentWrite("primary", nil)
	}

	rec, err := s.uploads.Append(ctx, models.UploadRecord{
		Account:     account,
		Filename:    filename,
		StoredName:  storedName,
		UploadTime:  s.now().Format(time.RFC3339),
		Category:    doc.Category,
		RowCount:    doc.RowCount,
		Columns:     doc.Columns,
		DocumentRef: ref,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}
	s.cache.Invalidate()
	s.updateStoredGauge(ctx)

	if s.sink != nil && len(doc.DailyBreakdown) > 0 {
		if err := s.sink.WriteBreakdown(ctx, rec.ID, account, doc.DailyBreakdown); err != nil {
			s.logger.Warn("daily stats sink write failed",
				zap.Int64("upload_id", rec.ID), zap.Error(err))
		}
	}

	return &UploadResult{
		ReportID:      rec.ID,
		Category:      doc.Category,
		RowsProcessed: doc.RowCount,
	}, nil
}

// saveRawFile keeps the original payload on disk for audit. Failures
// are logged, never fatal: the parsed document is the system of
// record.
func (s *Service) saveRawFile(account, filename string, data []byte) string {
	if s.cfg.UploadDir == "" {
		return ""
	}
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		s.logger.Warn("upload dir unavailable", zap.Error(err))
		return ""
	}
	storedName := fmt.Sprintf("%s_%s_%s", account, s.now().Format("20060102_150405"), filepath.Base(filename))
	if err := os.WriteFile(filepath.Join(s.cfg.UploadDir, storedName), data, 0o644); err != nil {
		s.logger.Warn("failed to keep raw upload", zap.String("name", storedName), zap.Error(err))
		return ""
	}
	return storedName
}

// ReportList is the /reports payload: recent metadata plus the full
// aggregated view.
type ReportList struct {
	Reports      []models.UploadRecord `json:"reports"`
	TotalReports int                   `json:"total_reports"`
	View         *models.UnifiedView   `json:"view"`
}

const recentReportsLimit = 10

// ListReports returns the most recent upload records with the current
// unified view.
func (s *Service) ListReports(ctx context.Context) (*ReportList, error) {
	records, err := s.uploads.List(ctx)
	if err != nil {
		return nil, err
	}

	recent := records
	if len(recent) > recentReportsLimit {
		recent = recent[len(recent)-recentReportsLimit:]
	}

	return &ReportList{
		Reports:      recent,
		TotalReports: len(records),
		View:         s.cache.GetOrBuild(ctx, records, aggregate.Filters{}),
	}, nil
}

// GetReport returns one upload record together with its document and
// the current aggregated view.
func (s *Service) GetReport(ctx context.Context, id int64) (*models.UploadRecord, *models.UnifiedView, error) {
	rec, err := s.uploads.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.uploads.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rec, s.cache.GetOrBuild(ctx, records, aggregate.Filters{}), nil
}

// DeleteReport removes one upload and its artifacts.
func (s *Service) DeleteReport(ctx context.Context, id int64) error {
	rec, err := s.uploads.Delete(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docs.DeleteDocument(ctx, rec.DocumentRef); err != nil {
		s.logger.Warn("failed to delete document",
			zap.String("ref", rec.DocumentRef), zap.Error(err))
	}
	s.removeRawFile(rec.StoredName)
	s.cache.Invalidate()
	s.updateStoredGauge(ctx)
	return nil
}

// ClearReports removes every upload, its artifacts, and empties the
// aggregation cache.
func (s *Service) ClearReports(ctx context.Context) (int, error) {
	removed, err := s.uploads.Clear(ctx)
	if err != nil {
		return 0, err
	}
	for i := range removed {
		if err := s.docs.DeleteDocument(ctx, removed[i].DocumentRef); err != nil {
			s.logger.Warn("failed to delete document",
				zap.String("ref", removed[i].DocumentRef), zap.Error(err))
		}
		s.removeRawFile(removed[i].StoredName)
	}
	s.cache.Invalidate()
	s.updateStoredGauge(ctx)
	s.logger.Info("cleared all reports", zap.Int("count", len(removed)))
	return len(removed), nil
}

func (s *Service) removeRawFile(storedName string) {
	if storedName == "" || s.cfg.UploadDir == "" {
		return
	}
	path := filepath.Join(s.cfg.UploadDir, filepath.Base(storedName))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove raw upload", zap.String("name", storedName), zap.Error(err))
	}
}

// FilteredView returns the aggregated view sliced by the given
// filters. Filtered reads always recompute.
func (s *Service) FilteredView(ctx context.Context, filters aggregate.Filters) (*models.UnifiedView, error) {
	records, err := s.uploads.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.cache.GetOrBuild(ctx, records, filters), nil
}

// CreativePage is one page of sorted creatives.
type CreativePage struct {
	Creatives  []models.CreativePerf `json:"creatives"`
	Page       int                   `json:"page"`
	PerPage    int                   `json:"per_page"`
	Total      int                   `json:"total"`
	TotalPages int                   `json:"total_pages"`
	HasNext    bool                  `json:"has_next"`
	HasPrev    bool                  `json:"has_prev"`
	SortBy     string                `json:"sort_by"`
	SortOrder  string                `json:"sort_order"`
}

// Creatives returns a sorted, paginated slice of the current view's
// creative list.
func (s *Service) Creatives(ctx context.Context, page, perPage int, sortBy, sortOrder string) (*CreativePage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}

	records, err := s.uploads.List(ctx)
	if err != nil {
		return nil, err
	}
	view := s.cache.GetOrBuild(ctx, records, aggregate.Filters{})

	creatives := make([]models.CreativePerf, len(view.CreativePerformance.TopPerformers))
	copy(creatives, view.CreativePerformance.TopPerformers)
	sortCreatives(creatives, sortBy, sortOrder)

	total := len(creatives)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return &CreativePage{
		Creatives:  creatives[start:end],
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
		HasNext:    end < total,
		HasPrev:    page > 1,
		SortBy:     sortBy,
		SortOrder:  sortOrder,
	}, nil
}

func sortCreatives(creatives []models.CreativePerf, sortBy, sortOrder string) {
	desc := strings.EqualFold(sortOrder, "desc")
	var less func(a, b models.CreativePerf) bool
	switch sortBy {
	case "installs":
		less = func(a, b models.CreativePerf) bool { return a.Installs < b.Installs }
	case "actions":
		less = func(a, b models.CreativePerf) bool { return a.Actions < b.Actions }
	case "creative_name":
		less = func(a, b models.CreativePerf) bool { return a.Name < b.Name }
	default: // spend
		less = func(a, b models.CreativePerf) bool { return a.Spend < b.Spend }
	}
	sort.SliceStable(creatives, func(i, j int) bool {
		if desc {
			return less(creatives[j], creatives[i])
		}
		return less(creatives[i], creatives[j])
	})
}

const mockDateSpan = 14

// AvailableDates collects the distinct daily-breakdown dates across
// all uploads. With no real dates, a recent placeholder range keeps
// date pickers functional.
func (s *Service) AvailableDates(ctx context.Context) ([]string, error) {
	records, err := s.uploads.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for i := range records {
		doc, err := s.docs.LoadDocument(ctx, records[i].DocumentRef)
		if err != nil {
			s.logger.Warn("skipping unreadable document",
				zap.String("ref", records[i].DocumentRef), zap.Error(err))
			continue
		}
		for _, day := range doc.DailyBreakdown {
			seen[day.Date] = struct{}{}
		}
	}

	if len(seen) == 0 {
		base := s.now().AddDate(0, 0, -mockDateSpan)
		for i := 0; i < mockDateSpan; i++ {
			seen[base.AddDate(0, 0, i).Format("2006-01-02")] = struct{}{}
		}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

// defaultCountries keeps country pickers functional before any
// geographic data lands.
var defaultCountries = []string{"AU", "BR", "CA", "DE", "FR", "GB", "IN", "JP", "RU", "US"}

// AvailableCountries collects the distinct countries across all
// uploads' geographic lists.
func (s *Service) AvailableCountries(ctx context.Context) ([]string, error) {
	records, err := s.uploads.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for i := range records {
		doc, err := s.docs.LoadDocument(ctx, records[i].DocumentRef)
		if err != nil {
			s.logger.Warn("skipping unreadable document",
				zap.String("ref", records[i].DocumentRef), zap.Error(err))
			continue
		}
		for _, geo := range doc.GeographicPerformance {
			seen[geo.Country] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return defaultCountries, nil
	}

	countries := make([]string, 0, len(seen))
	for c := range seen {
		countries = append(countries, c)
	}
	sort.Strings(countries)
	return countries, nil
}

// AccountsOverview summarizes upload activity per account.
type AccountsOverview struct {
	TotalReports int      `json:"total_reports"`
	Accounts     []string `json:"accounts"`
	LatestUpload string   `json:"latest_upload,omitempty"`
}

// Overview reports upload counts and accounts.
func (s *Service) Overview(ctx context.Context) (*AccountsOverview, error) {
	records, err := s.uploads.List(ctx)
	if err != nil {
		return nil, err
	}

	out := &AccountsOverview{TotalReports: len(records)}
	seen := make(map[string]struct{})
	for i := range records {
		if _, ok := seen[records[i].Account]; !ok {
			seen[records[i].Account] = struct{}{}
			out.Accounts = append(out.Accounts, records[i].Account)
		}
		if records[i].UploadTime > out.LatestUpload {
			out.LatestUpload = records[i].UploadTime
		}
	}
	sort.Strings(out.Accounts)
	return out, nil
}

func (s *Service) updateStoredGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if n, err := s.uploads.Count(ctx); err == nil {
		s.metrics.UpdateStoredUploads(n)
	}
}
