package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"signdocs/internal/model"
	"signdocs/internal/repository"
)

// maxAppendRetries bounds the optimistic retry loop when concurrent appends
// for the same document collide on the (document_id, version) constraint.
const maxAppendRetries = 3

// VersionPostgres is a PostgreSQL implementation of repository.VersionRepository.
type VersionPostgres struct {
	db *sql.DB
}

// NewVersionPostgres creates a new VersionPostgres repository.
func NewVersionPostgres(db *sql.DB) *VersionPostgres {
	return &VersionPostgres{db: db}
}

var _ repository.VersionRepository = (*VersionPostgres)(nil)

// Append computes the next version number and inserts the row in a single
// statement. The computation and the insert still race against concurrent
// appenders, so the (document_id, version) primary key is the arbiter: the
// loser gets SQLSTATE 23505 and retries with a freshly computed candidate.
func (r *VersionPostgres) Append(ctx context.Context, documentID, fileName string) (*model.DocumentVersion, error) {
	const q = `
		INSERT INTO document_versions (document_id, version, file_name)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2
		FROM document_versions
		WHERE document_id = $1
		RETURNING document_id, version, file_name, created_at
	`
	var lastErr error
	for attempt := 0; attempt < maxAppendRetries; attempt++ {
		var v model.DocumentVersion
		err := r.db.QueryRowContext(ctx, q, documentID, fileName).Scan(
			&v.DocumentID,
			&v.Version,
			&v.FileName,
			&v.CreatedAt,
		)
		if err == nil {
			return &v, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("append version for %s: retries exhausted: %w", documentID, lastErr)
}

// ListByDocument returns the full version history, oldest first.
func (r *VersionPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.DocumentVersion, error) {
	const q = `
		SELECT document_id, version, file_name, created_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version ASC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentVersion, 0)
	for rows.Next() {
		var v model.DocumentVersion
		if err := rows.Scan(&v.DocumentID, &v.Version, &v.FileName, &v.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteByDocument removes the whole history of a document.
func (r *VersionPostgres) DeleteByDocument(ctx context.Context, documentID string) error {
	const q = `DELETE FROM document_versions WHERE document_id = $1`
	_, err := r.db.ExecContext(ctx, q, documentID)
	return err
}
