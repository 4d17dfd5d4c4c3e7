package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"signdocs/internal/auth"
	"signdocs/internal/model"
	"signdocs/internal/repository"
)

const documentColumns = "id, creator_id, company_id, signer_id, name, status, content, is_private, file_name, created_at, updated_at"

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// Visibility scopes are rendered into the WHERE clause, never applied after
// the fetch.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// scopeClause renders the scope as an additional WHERE condition. The column
// name comes from the policy table in internal/auth, never from request input.
// The returned clause is empty for an unrestricted scope.
func scopeClause(scope auth.Scope, argIdx int) (string, []any) {
	if scope.Unrestricted() {
		return "", nil
	}
	col, val := scope.Predicate()
	return fmt.Sprintf(" AND %s = $%d", col, argIdx), []any{val}
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (id, creator_id, company_id, signer_id, name, status, content, is_private, file_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.CreatorID,
		doc.CompanyID,
		doc.SignerID,
		doc.Name,
		doc.Status,
		[]byte(doc.Content),
		doc.IsPrivate,
		doc.FileName,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single document by its ID within the scope.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string, scope auth.Scope) (*model.Document, error) {
	if scope.DeniesAll() {
		return nil, sql.ErrNoRows
	}
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	args := []any{id}
	clause, extra := scopeClause(scope, 2)
	q += clause
	args = append(args, extra...)

	return scanDocument(r.db.QueryRowContext(ctx, q, args...))
}

// List returns all documents admitted by the scope, newest first.
func (r *DocumentPostgres) List(ctx context.Context, scope auth.Scope) ([]model.Document, error) {
	if scope.DeniesAll() {
		return []model.Document{}, nil
	}
	q := `SELECT ` + documentColumns + ` FROM documents WHERE true`
	var args []any
	clause, extra := scopeClause(scope, 1)
	q += clause
	args = append(args, extra...)
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
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

// Update applies the patch to the scoped row, refreshes updated_at, and
// returns the stored record. sql.ErrNoRows covers both an absent row and a
// row hidden by the scope.
func (r *DocumentPostgres) Update(ctx context.Context, id string, scope auth.Scope, patch model.DocumentPatch) (*model.Document, error) {
	if scope.DeniesAll() {
		return nil, sql.ErrNoRows
	}

	sets := []string{"updated_at = now()"}
	var args []any
	next := 1
	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, next))
		args = append(args, val)
		next++
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Content != nil {
		add("content", []byte(*patch.Content))
	}
	if patch.SignerID != nil {
		add("signer_id", *patch.SignerID)
	}
	if patch.IsPrivate != nil {
		add("is_private", *patch.IsPrivate)
	}
	if patch.FileName != nil {
		add("file_name", *patch.FileName)
	}

	q := fmt.Sprintf("UPDATE documents SET %s WHERE id = $%d", strings.Join(sets, ", "), next)
	args = append(args, id)
	next++

	clause, extra := scopeClause(scope, next)
	q += clause
	args = append(args, extra...)
	q += " RETURNING " + documentColumns

	return scanDocument(r.db.QueryRowContext(ctx, q, args...))
}

// Delete removes the scoped row and reports whether a row was deleted.
func (r *DocumentPostgres) Delete(ctx context.Context, id string, scope auth.Scope) (bool, error) {
	if scope.DeniesAll() {
		return false, nil
	}
	q := `DELETE FROM documents WHERE id = $1`
	args := []any{id}
	clause, extra := scopeClause(scope, 2)
	q += clause
	args = append(args, extra...)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	var content []byte
	if err := row.Scan(
		&d.ID,
		&d.CreatorID,
		&d.CompanyID,
		&d.SignerID,
		&d.Name,
		&d.Status,
		&content,
		&d.IsPrivate,
		&d.FileName,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(content) > 0 {
		d.Content = content
	}
	return &d, nil
}

// isUniqueViolation reports SQLSTATE 23505 (unique_violation).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
