package repository

import (
	"context"
	"errors"

	"signdocs/internal/auth"
	"signdocs/internal/model"
)

// ErrDuplicate is returned by Create when the supplied document id already
// exists. Implementations translate their store's duplicate-key failure into
// this sentinel so callers never inspect driver errors.
var ErrDuplicate = errors.New("duplicate document id")

// DocumentRepository defines data access for document rows using SQL queries only.
// No business logic here, strictly persistence operations. Every read and
// mutation takes the caller's visibility scope and applies it inside the
// query itself, so rows outside the scope are indistinguishable from absent
// rows (both surface as sql.ErrNoRows).
type DocumentRepository interface {
	// Create inserts a new document row. The caller provides the id and
	// timestamps. Returns ErrDuplicate when the id is already taken; the
	// existing row is left untouched.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns the document with the given id if the scope admits it.
	FindByID(ctx context.Context, id string, scope auth.Scope) (*model.Document, error)

	// List returns all documents admitted by the scope, newest first.
	List(ctx context.Context, scope auth.Scope) ([]model.Document, error)

	// Update applies the patch to the scoped row and refreshes updated_at.
	// Returns sql.ErrNoRows when the row is absent or out of scope.
	Update(ctx context.Context, id string, scope auth.Scope, patch model.DocumentPatch) (*model.Document, error)

	// Delete removes the scoped row and reports whether a row was deleted.
	Delete(ctx context.Context, id string, scope auth.Scope) (bool, error)
}

// VersionRepository owns the append-only version history of documents.
type VersionRepository interface {
	// Append assigns the next version number for the document and inserts the
	// row. Safe under concurrent callers for the same document.
	Append(ctx context.Context, documentID, fileName string) (*model.DocumentVersion, error)

	// ListByDocument returns the full history, oldest first.
	ListByDocument(ctx context.Context, documentID string) ([]model.DocumentVersion, error)

	// DeleteByDocument removes the whole history of a document.
	DeleteByDocument(ctx context.Context, documentID string) error
}
