package report

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/metrics"
	"github.com/radiusdt/vector-insights/internal/models"
)

// ErrUnknownCategory is returned when a table matches no known
// schema. Terminal for that upload; never treated as a campaign
// report.
var ErrUnknownCategory = errors.New("unrecognized csv layout")

// Processor turns raw CSV payloads into aggregate documents.
type Processor struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewProcessor(logger *zap.Logger, m *metrics.Metrics) *Processor {
	return &Processor{
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Classify parses the payload and returns the table with its detected
// category. Decode failures are terminal; a header-only table
// classifies normally and yields an empty document downstream.
func (p *Processor) Classify(data []byte) (*RawTable, models.ReportCategory, error) {
	t, err := ParseCSV(data)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordDecodeFailure()
		}
		return nil, models.CategoryUnknown, err
	}

	category := Detect(t)
	p.logger.Debug("classified upload",
		zap.String("category", string(category)),
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Columns)))
	return t, category, nil
}

// Process runs the routine matching the detected category over the
// payload. filename feeds filename-derived dates for daily inventory
// files.
func (p *Processor) Process(data []byte, filename string) (*models.AggregateDocument, error) {
	return p.ProcessAs(data, filename, models.CategoryUnknown)
}

// ProcessAs is Process with a caller-forced category. Unknown means
// trust detection.
func (p *Processor) ProcessAs(data []byte, filename string, override models.ReportCategory) (*models.AggregateDocument, error) {
	start := p.now()

	t, category, err := p.Classify(data)
	if err != nil {
		return nil, err
	}
	if override != models.CategoryUnknown {
		category = override
	}

	var doc *models.AggregateDocument
	switch category {
	case models.CategoryReports:
		doc = processReports(t)
	case models.CategoryInventoryOverall, models.CategoryInventoryDaily:
		doc = processInventory(t, category, filename, p.now())
	default:
		if p.metrics != nil {
			p.metrics.RecordUploadFailure("unknown_category")
		}
		return nil, fmt.Errorf("%w: columns %v", ErrUnknownCategory, t.Columns)
	}

	if p.metrics != nil {
		p.metrics.RecordUpload(string(category), len(data), p.now().Sub(start))
	}
	p.logger.Info("processed upload",
		zap.String("filename", filename),
		zap.String("category", string(category)),
		zap.Int("rows", doc.RowCount))
	return doc, nil
}
