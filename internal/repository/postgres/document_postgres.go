package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"docvault/internal/model"
	"docvault/internal/repository"
)

const (
	uniqueViolation   = "23505"
	uuidConstraintKey = "files_uuid_key"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Insert adds a row; id and upload_date come from column defaults.
func (r *DocumentPostgres) Insert(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO files (filename, original_name, uuid, file_path, size, mimetype)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, filename, original_name, uuid, upload_date, file_path, size, mimetype
	`
	row := r.db.QueryRowContext(ctx, q,
		doc.Filename,
		doc.OriginalName,
		doc.UUID,
		doc.StoragePath,
		doc.Size,
		doc.MimeType,
	)
	out, err := scanDocument(row)
	if err != nil {
		if isDuplicateUUID(err) {
			return nil, fmt.Errorf("insert %s: %w", doc.UUID, repository.ErrDuplicateIdentifier)
		}
		return nil, err
	}
	return out, nil
}

// FindByUUID fetches a single record by its content identifier.
func (r *DocumentPostgres) FindByUUID(ctx context.Context, uuid string) (*model.Document, error) {
	const q = `
		SELECT id, filename, original_name, uuid, upload_date, file_path, size, mimetype
		FROM files
		WHERE uuid = $1
	`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, uuid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListAll returns every row, newest upload first; id breaks timestamp ties.
func (r *DocumentPostgres) ListAll(ctx context.Context) ([]model.Document, error) {
	const q = `
		SELECT id, filename, original_name, uuid, upload_date, file_path, size, mimetype
		FROM files
		ORDER BY upload_date DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var d model.Document
	if err := s.Scan(
		&d.ID,
		&d.Filename,
		&d.OriginalName,
		&d.UUID,
		&d.UploadedAt,
		&d.StoragePath,
		&d.Size,
		&d.MimeType,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

func isDuplicateUUID(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == uuidConstraintKey
}
