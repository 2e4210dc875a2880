package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/aggregate"
	"github.com/radiusdt/vector-insights/internal/appdb"
	"github.com/radiusdt/vector-insights/internal/config"
	"github.com/radiusdt/vector-insights/internal/dashboard"
	"github.com/radiusdt/vector-insights/internal/database"
	"github.com/radiusdt/vector-insights/internal/metrics"
	"github.com/radiusdt/vector-insights/internal/naming"
	"github.com/radiusdt/vector-insights/internal/report"
	"github.com/radiusdt/vector-insights/internal/storage"
)

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	DB         *database.PostgresDB
	Redis      *database.RedisDB
	ClickHouse *database.ClickHouseDB
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Server wraps HTTP handlers and the dashboard services.
type Server struct {
	service *dashboard.Service
	apps    *appdb.Database
	naming  *naming.System
	logger  *zap.Logger
	config  *config.Config
	metrics *metrics.Metrics
}

// NewServer constructs a new http.Handler with all routes registered.
func NewServer(deps *Dependencies) http.Handler {
	// Initialize repositories
	var uploads storage.UploadRepo
	var docs storage.DocumentStore

	if deps.DB != nil {
		uploads = storage.NewPostgresUploadRepo(deps.DB.Pool)
		docs = storage.NewPostgresDocumentStore(deps.DB.Pool)
	} else {
		uploads = storage.NewInMemoryUploadRepo()
		fileStore, err := storage.NewFileDocumentStore(filepath.Join(deps.Config.Upload.Dir, "processed"))
		if err != nil {
			deps.Logger.Warn("file document store unavailable, using memory", zap.Error(err))
			docs = storage.NewInMemoryDocumentStore()
		} else {
			docs = fileStore
		}
	}

	if deps.Redis != nil {
		docs = storage.NewCachedDocumentStore(docs, deps.Redis.Client, deps.Config.Redis.DocTTL, deps.Logger, deps.Metrics)
	}

	var sink *storage.DailyStatsSink
	if deps.ClickHouse != nil {
		sink = storage.NewDailyStatsSink(deps.ClickHouse.Conn, deps.Logger)
	}

	// Initialize services
	processor := report.NewProcessor(deps.Logger, deps.Metrics)
	agg := aggregate.NewAggregator(docs, deps.Logger, deps.Metrics)
	agg.MaxApps = deps.Config.Cache.MaxApps
	agg.MaxCategories = deps.Config.Cache.MaxCategories
	cache := aggregate.NewCache(agg, deps.Metrics, deps.Config.Cache.TTL)

	service := dashboard.NewService(
		deps.Logger,
		deps.Metrics,
		processor,
		uploads,
		docs,
		cache,
		sink,
		dashboard.Config{
			UploadDir: deps.Config.Upload.Dir,
			MaxBytes:  deps.Config.Upload.MaxBytes,
			Workers:   deps.Config.Upload.Workers,
		},
	)

	s := &Server{
		service: service,
		apps:    appdb.Load(deps.Config.AppDB.Path, deps.Logger),
		naming:  naming.NewSystem(deps.Config.Naming.Dir, deps.Logger),
		logger:  deps.Logger,
		config:  deps.Config,
		metrics: deps.Metrics,
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	if deps.Config.Metrics.Enabled {
		mux.Handle(deps.Config.Metrics.Path, metrics.Handler())
	}

	// Upload pipeline
	mux.HandleFunc("/upload", s.handleUpload)

	// Reports
	mux.HandleFunc("/reports", s.handleReports)
	mux.HandleFunc("/reports/filtered", s.handleFilteredReports)
	mux.HandleFunc("/reports/", s.handleReportByID)
	mux.HandleFunc("/clear-reports", s.handleClearReports)

	// Creatives
	mux.HandleFunc("/creatives", s.handleCreatives)

	// Filter helpers
	mux.HandleFunc("/available-dates", s.handleAvailableDates)
	mux.HandleFunc("/available-countries", s.handleAvailableCountries)

	// Analytics
	mux.HandleFunc("/analytics/overview", s.handleAnalyticsOverview)

	// App dictionary
	mux.HandleFunc("/apps", s.handleApps)
	mux.HandleFunc("/apps/categories", s.handleAppCategories)
	mux.HandleFunc("/apps/statistics", s.handleAppStatistics)
	mux.HandleFunc("/apps/search/", s.handleAppSearch)
	mux.HandleFunc("/apps/", s.handleAppByID)

	// Creative naming
	mux.HandleFunc("/naming/encode", s.handleNamingEncode)
	mux.HandleFunc("/naming/decode", s.handleNamingDecode)
	mux.HandleFunc("/naming/dictionary", s.handleNamingDictionary)
	mux.HandleFunc("/naming/history", s.handleNamingHistory)

	return mux
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ---- Upload ----

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.errorResponse(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, "file field missing: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	account := r.FormValue("account")
	if account == "" {
		s.errorResponse(w, "account field is required", http.StatusBadRequest)
		return
	}
	fileType := r.FormValue("fileType")

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, "failed to read file", http.StatusBadRequest)
		return
	}

	result, err := s.service.ProcessUpload(r.Context(), account, header.Filename, fileType, data)
	if err != nil {
		s.uploadError(w, err)
		return
	}

	s.jsonResponse(w, map[string]any{
		"success":        true,
		"message":        "file uploaded and processed successfully",
		"report_id":      result.ReportID,
		"csv_type":       result.Category,
		"rows_processed": result.RowsProcessed,
	})
}

func (s *Server) uploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrNotCSV):
		s.errorResponse(w, "only CSV files are allowed", http.StatusBadRequest)
	case errors.Is(err, dashboard.ErrTooLarge):
		s.errorResponse(w, "file too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, report.ErrDecode), errors.Is(err, report.ErrUnknownCategory):
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("upload failed", zap.Error(err))
		s.errorResponse(w, "error processing file", http.StatusInternalServerError)
	}
}

// ---- Reports ----

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	list, err := s.service.ListReports(r.Context())
	if err != nil {
		s.logger.Error("failed to list reports", zap.Error(err))
		s.errorResponse(w, "failed to list reports", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, map[string]any{
		"success":                true,
		"reports":                list.Reports,
		"total_reports":          list.TotalReports,
		"overview":               list.View.Overview,
		"top_campaigns":          list.View.TopCampaigns,
		"creative_performance":   list.View.CreativePerformance,
		"exchange_performance":   list.View.ExchangePerformance,
		"geographic_performance": list.View.GeographicPerformance,
		"gambling_insights":      list.View.GamblingInsights,
		"daily_breakdown":        list.View.DailyBreakdown,
		"inventory_app_analysis": list.View.InventoryAppAnalysis,
	})
}

func (s *Server) handleReportByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/reports/")
	idStr = strings.TrimSuffix(idStr, "/data")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.errorResponse(w, "invalid report id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, view, err := s.service.GetReport(r.Context(), id)
		if errors.Is(err, dashboard.ErrNotFound) {
			s.errorResponse(w, "report not found", http.StatusNotFound)
			return
		}
		if err != nil {
			s.logger.Error("failed to load report", zap.Int64("id", id), zap.Error(err))
			s.errorResponse(w, "failed to load report", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, map[string]any{
			"success":     true,
			"report_info": rec,
			"data":        view,
		})

	case http.MethodDelete:
		err := s.service.DeleteReport(r.Context(), id)
		if errors.Is(err, dashboard.ErrNotFound) {
			s.errorResponse(w, "report not found", http.StatusNotFound)
			return
		}
		if err != nil {
			s.logger.Error("failed to delete report", zap.Int64("id", id), zap.Error(err))
			s.errorResponse(w, "failed to delete report", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, map[string]any{
			"success": true,
			"message": "report deleted successfully",
		})

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleFilteredReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	filters := aggregate.Filters{
		Date:      q.Get("date"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Country:   q.Get("country"),
	}

	view, err := s.service.FilteredView(r.Context(), filters)
	if err != nil {
		s.logger.Error("failed to build filtered view", zap.Error(err))
		s.errorResponse(w, "failed to build filtered view", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, map[string]any{
		"success": true,
		"filters": map[string]string{
			"date":       filters.Date,
			"start_date": filters.StartDate,
			"end_date":   filters.EndDate,
			"country":    filters.Country,
		},
		"data": view,
	})
}

func (s *Server) handleClearReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := s.service.ClearReports(r.Context())
	if err != nil {
		s.logger.Error("failed to clear reports", zap.Error(err))
		s.errorResponse(w, "failed to clear reports", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, map[string]any{
		"success":       true,
		"message":       "all reports cleared successfully",
		"cleared_count": count,
	})
}

// ---- Creatives ----

func (s *Server) handleCreatives(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	page := queryInt(q.Get("page"), 1)
	perPage := queryInt(q.Get("per_page"), 30)
	sortBy := q.Get("sort_by")
	if sortBy == "" {
		sortBy = "spend"
	}
	sortOrder := q.Get("sort_order")
	if sortOrder == "" {
		sortOrder = "desc"
	}

	pageData, err := s.service.Creatives(r.Context(), page, perPage, sortBy, sortOrder)
	if err != nil {
		s.logger.Error("failed to page creatives", zap.Error(err))
		s.errorResponse(w, "failed to get creatives", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, map[string]any{
		"success":   true,
		"creatives": pageData.Creatives,
		"pagination": map[string]any{
			"page":        pageData.Page,
			"per_page":    pageData.PerPage,
			"total":       pageData.Total,
			"total_pages": pageData.TotalPages,
			"has_next":    pageData.HasNext,
			"has_prev":    pageData.HasPrev,
		},
		"sorting": map[string]string{
			"sort_by":    pageData.SortBy,
			"sort_order": pageData.SortOrder,
		},
	})
}

// ---- Filter helpers ----

func (s *Server) handleAvailableDates(w http.ResponseWriter, r *http.Request) {
	dates, err := s.service.AvailableDates(r.Context())
	if err != nil {
		s.logger.Error("failed to collect dates", zap.Error(err))
		s.errorResponse(w, "failed to collect dates", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, map[string]any{"dates": dates, "count": len(dates)})
}

func (s *Server) handleAvailableCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.service.AvailableCountries(r.Context())
	if err != nil {
		s.logger.Error("failed to collect countries", zap.Error(err))
		s.errorResponse(w, "failed to collect countries", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, map[string]any{"countries": countries, "count": len(countries)})
}

// ---- Analytics ----

func (s *Server) handleAnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.service.Overview(r.Context())
	if err != nil {
		s.logger.Error("failed to build overview", zap.Error(err))
		s.errorResponse(w, "failed to build overview", http.StatusInternalServerError)
		return
	}
	s.jsonResponse(w, map[string]any{"success": true, "overview": overview})
}

// ---- App dictionary ----

func (s *Server) handleApps(w http.ResponseWriter, r *http.Request) {
	if category := r.URL.Query().Get("category"); category != "" {
		s.jsonResponse(w, s.apps.ByCategory(category))
		return
	}
	s.jsonResponse(w, s.apps.List())
}

func (s *Server) handleAppByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/apps/")
	if id == "" || strings.Contains(id, "/") {
		s.errorResponse(w, "invalid app id", http.StatusBadRequest)
		return
	}

	app, ok := s.apps.Get(id)
	if !ok {
		s.errorResponse(w, "app not found", http.StatusNotFound)
		return
	}
	s.jsonResponse(w, map[string]any{"id": id, "app": app})
}

func (s *Server) handleAppSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimPrefix(r.URL.Path, "/apps/search/")
	if query == "" {
		s.errorResponse(w, "search query is required", http.StatusBadRequest)
		return
	}
	s.jsonResponse(w, s.apps.Search(query))
}

func (s *Server) handleAppCategories(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, map[string]any{"categories": s.apps.Categories()})
}

func (s *Server) handleAppStatistics(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, s.apps.Statistics())
}

// ---- Creative naming ----

func (s *Server) handleNamingEncode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Names []string `json:"names"`
		Style int      `json:"style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Names) == 0 {
		s.errorResponse(w, "names are required", http.StatusBadRequest)
		return
	}
	if req.Style < naming.StyleIPhone || req.Style > naming.StyleRandom {
		req.Style = naming.StyleIPhone
	}

	s.jsonResponse(w, map[string]any{
		"success": true,
		"results": s.naming.BatchEncode(req.Names, req.Style),
	})
}

func (s *Server) handleNamingDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Codes []string `json:"codes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Codes) == 0 {
		s.errorResponse(w, "codes are required", http.StatusBadRequest)
		return
	}

	s.jsonResponse(w, map[string]any{
		"success": true,
		"results": s.naming.BatchDecode(req.Codes),
	})
}

func (s *Server) handleNamingDictionary(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, map[string]any{"dictionary": s.naming.Dictionary()})
}

func (s *Server) handleNamingHistory(w http.ResponseWriter, r *http.Request) {
	n := queryInt(r.URL.Query().Get("limit"), 50)
	s.jsonResponse(w, map[string]any{"history": s.naming.History(n)})
}

// ---- Helper Methods ----

func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
