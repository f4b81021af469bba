package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/cobrapixel/ocr-extractor/internal/models"
)

var ErrExtractionNotFound = errors.New("extraction record not found")

// SaveExtraction inserts a new extraction record and returns its ID
func (db *DB) SaveExtraction(ctx context.Context, rec *models.ExtractionRecord) (int, error) {
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO extraction_records (source_filename, extracted_text, provider, image_mime, artifact_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, rec.SourceFilename, rec.ExtractedText, rec.Provider, rec.ImageMime, rec.ArtifactName).Scan(
		&rec.ID, &rec.CreatedAt,
	)
	if err != nil {
		return 0, err
	}

	return rec.ID, nil
}

// GetExtractionByID retrieves a single extraction record
func (db *DB) GetExtractionByID(ctx context.Context, id int) (*models.ExtractionRecord, error) {
	rec := &models.ExtractionRecord{}

	err := db.Pool.QueryRow(ctx, `
		SELECT id, source_filename, extracted_text, provider, image_mime, artifact_name, created_at
		FROM extraction_records
		WHERE id = $1
	`, id).Scan(
		&rec.ID, &rec.SourceFilename, &rec.ExtractedText, &rec.Provider,
		&rec.ImageMime, &rec.ArtifactName, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExtractionNotFound
		}
		return nil, err
	}

	return rec, nil
}

// ListExtractions returns a paginated list of records, newest first
func (db *DB) ListExtractions(ctx context.Context, params *models.ExtractionListParams) ([]*models.ExtractionRecord, int, error) {
	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM extraction_records`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, source_filename, extracted_text, provider, image_mime, artifact_name, created_at
		FROM extraction_records
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*models.ExtractionRecord
	for rows.Next() {
		rec := &models.ExtractionRecord{}
		err := rows.Scan(
			&rec.ID, &rec.SourceFilename, &rec.ExtractedText, &rec.Provider,
			&rec.ImageMime, &rec.ArtifactName, &rec.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}

	if records == nil {
		records = []*models.ExtractionRecord{}
	}

	return records, total, nil
}

// DeleteExtraction removes a record by ID
func (db *DB) DeleteExtraction(ctx context.Context, id int) error {
	result, err := db.Pool.Exec(ctx, `DELETE FROM extraction_records WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrExtractionNotFound
	}

	return nil
}
