package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radiusdt/vector-insights/internal/models"
)

// EnsureSchema creates the upload and document tables if missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS uploads (
			id BIGSERIAL PRIMARY KEY,
			account TEXT NOT NULL DEFAULT '',
			filename TEXT NOT NULL,
			stored_name TEXT NOT NULL DEFAULT '',
			upload_time TEXT NOT NULL,
			csv_type TEXT NOT NULL,
			row_count INT NOT NULL DEFAULT 0,
			columns JSONB NOT NULL DEFAULT '[]',
			document_ref TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS documents (
			ref TEXT PRIMARY KEY,
			body JSONB NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// PostgresUploadRepo implements UploadRepo using PostgreSQL.
type PostgresUploadRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUploadRepo(pool *pgxpool.Pool) *PostgresUploadRepo {
	return &PostgresUploadRepo{pool: pool}
}

const uploadColumns = `id, account, filename, stored_name, upload_time, csv_type, row_count, columns, document_ref`

func scanUpload(row pgx.Row) (*models.UploadRecord, error) {
	var rec models.UploadRecord
	var category string
	var columnsJSON []byte
	err := row.Scan(&rec.ID, &rec.Account, &rec.Filename, &rec.StoredName,
		&rec.UploadTime, &category, &rec.RowCount, &columnsJSON, &rec.DocumentRef)
	if err != nil {
		return nil, err
	}
	rec.Category = models.ParseCategory(category)
	if len(columnsJSON) > 0 {
		if err := json.Unmarshal(columnsJSON, &rec.Columns); err != nil {
			return nil, fmt.Errorf("failed to decode columns: %w", err)
		}
	}
	return &rec, nil
}

func (r *PostgresUploadRepo) List(ctx context.Context) ([]models.UploadRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+uploadColumns+` FROM uploads ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var records []models.UploadRecord
	for rows.Next() {
		rec, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *PostgresUploadRepo) Get(ctx context.Context, id int64) (*models.UploadRecord, error) {
	rec, err := scanUpload(r.pool.QueryRow(ctx, `
		SELECT `+uploadColumns+` FROM uploads WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	return rec, nil
}

func (r *PostgresUploadRepo) Append(ctx context.Context, rec models.UploadRecord) (models.UploadRecord, error) {
	columnsJSON, err := json.Marshal(rec.Columns)
	if err != nil {
		return rec, fmt.Errorf("failed to encode columns: %w", err)
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO uploads (account, filename, stored_name, upload_time, csv_type, row_count, columns, document_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, rec.Account, rec.Filename, rec.StoredName, rec.UploadTime,
		string(rec.Category), rec.RowCount, columnsJSON, rec.DocumentRef).Scan(&rec.ID)
	if err != nil {
		return rec, fmt.Errorf("failed to insert upload: %w", err)
	}
	return rec, nil
}

func (r *PostgresUploadRepo) Delete(ctx context.Context, id int64) (*models.UploadRecord, error) {
	rec, err := scanUpload(r.pool.QueryRow(ctx, `
		DELETE FROM uploads WHERE id = $1
		RETURNING `+uploadColumns+`
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete upload: %w", err)
	}
	return rec, nil
}

func (r *PostgresUploadRepo) Clear(ctx context.Context) ([]models.UploadRecord, error) {
	rows, err := r.pool.Query(ctx, `
		DELETE FROM uploads RETURNING `+uploadColumns+`
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to clear uploads: %w", err)
	}
	defer rows.Close()

	var removed []models.UploadRecord
	for rows.Next() {
		rec, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		removed = append(removed, *rec)
	}
	return removed, rows.Err()
}

func (r *PostgresUploadRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM uploads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count uploads: %w", err)
	}
	return n, nil
}

// PostgresDocumentStore implements DocumentStore on a JSONB column.
type PostgresDocumentStore struct {
	pool *pgxpool.Pool
}

func NewPostgresDocumentStore(pool *pgxpool.Pool) *PostgresDocumentStore {
	return &PostgresDocumentStore{pool: pool}
}

func (s *PostgresDocumentStore) SaveDocument(ctx context.Context, ref string, doc *models.AggregateDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (ref, body) VALUES ($1, $2)
		ON CONFLICT (ref) DO UPDATE SET body = EXCLUDED.body
	`, ref, body)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *PostgresDocumentStore) LoadDocument(ctx context.Context, ref string) (*models.AggregateDocument, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM documents WHERE ref = $1`, ref).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	var doc models.AggregateDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

func (s *PostgresDocumentStore) DeleteDocument(ctx context.Context, ref string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE ref = $1`, ref); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
