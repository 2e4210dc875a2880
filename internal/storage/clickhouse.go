package storage

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/models"
)

// DailyStatsSink streams per-day breakdown rows into ClickHouse for
// long-term trend queries. The sink is write-only and best-effort:
// insert failures are logged by the caller, never block an upload.
type DailyStatsSink struct {
	conn   driver.Conn
	logger *zap.Logger
}

func NewDailyStatsSink(conn driver.Conn, logger *zap.Logger) *DailyStatsSink {
	return &DailyStatsSink{conn: conn, logger: logger}
}

// EnsureTable creates the daily stats table if missing.
func (s *DailyStatsSink) EnsureTable(ctx context.Context) error {
	err := s.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS daily_stats (
			upload_id   Int64,
			account     String,
			date        String,
			spend       Float64,
			impressions Float64,
			clicks      Float64,
			installs    Float64,
			actions     Float64,
			revenue     Float64,
			cpi         Float64,
			roas        Float64,
			ctr         Float64,
			synthetic   UInt8
		) ENGINE = MergeTree()
		ORDER BY (account, date, upload_id)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure daily_stats table: %w", err)
	}
	return nil
}

// WriteBreakdown inserts one upload's daily rows.
func (s *DailyStatsSink) WriteBreakdown(ctx context.Context, uploadID int64, account string, days []models.DailyStat) error {
	if len(days) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO daily_stats (upload_id, account, date, spend, impressions, clicks, installs, actions, revenue, cpi, roas, ctr, synthetic)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare daily_stats batch: %w", err)
	}

	for _, d := range days {
		synthetic := uint8(0)
		if d.Synthetic {
			synthetic = 1
		}
		if err := batch.Append(uploadID, account, d.Date, d.Spend, d.Impressions,
			d.Clicks, d.Installs, d.Actions, d.Revenue, d.CPI, d.ROAS, d.CTR, synthetic); err != nil {
			return fmt.Errorf("failed to append daily_stats row: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send daily_stats batch: %w", err)
	}
	s.logger.Debug("wrote daily stats",
		zap.Int64("upload_id", uploadID),
		zap.Int("rows", len(days)))
	return nil
}
