package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"signdocs/internal/auth"
	"signdocs/internal/model"
	"signdocs/internal/render"
	"signdocs/internal/repository"
	"signdocs/internal/storage"
)

var (
	// ErrNotFound covers both an absent document and one the caller cannot
	// see; the two are deliberately indistinguishable.
	ErrNotFound = errors.New("document not found")
	// ErrForbidden means the role lacks the operation's privilege tier.
	ErrForbidden = errors.New("operation not permitted")
	// ErrConflict means a client-supplied document id already exists.
	ErrConflict = errors.New("document id already exists")
	// ErrValidation covers missing or malformed input.
	ErrValidation = errors.New("invalid input")
	// ErrUpstream wraps record-store or blob-store failures.
	ErrUpstream = errors.New("upstream store failure")
)

// CreateDocumentInput carries the fields a caller may set at creation time.
// ID is optional: clients may supply one for offline-created drafts.
type CreateDocumentInput struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	Status    model.Status    `json:"status,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	SignerID  string          `json:"signer_id,omitempty"`
	IsPrivate bool            `json:"is_private"`
}

// UploadResult is returned after an accepted file upload.
type UploadResult struct {
	DocumentID string         `json:"document_id"`
	FileName   string         `json:"file_name"`
	Version    int            `json:"version"`
	Pages      map[int]string `json:"pages,omitempty"`
}

// DocumentService defines the document lifecycle use cases. Every operation
// consumes the caller's verified identity and derives its visibility scope
// through the access policy.
type DocumentService interface {
	// List returns the documents visible to the caller.
	List(ctx context.Context, ident model.Identity) ([]model.Document, error)

	// Get returns a single visible document.
	Get(ctx context.Context, ident model.Identity, id string) (*model.Document, error)

	// Create inserts a new document record. Honors a client-supplied id,
	// failing with ErrConflict if it is taken.
	Create(ctx context.Context, ident model.Identity, input CreateDocumentInput) (*model.Document, error)

	// Update patches a visible document. A file-changing patch appends
	// exactly one version; metadata-only patches append none.
	Update(ctx context.Context, ident model.Identity, id string, patch model.DocumentPatch) (*model.Document, error)

	// Delete cascades: version history, then blob folder, then the row.
	Delete(ctx context.Context, ident model.Identity, id string) error

	// Upload stores a new file for an existing document, appends a version,
	// and renders page images for an initial PDF upload.
	Upload(ctx context.Context, ident model.Identity, id string, r io.Reader, originalName, contentType string, size int64) (*UploadResult, error)

	// AccessURL issues a time-bounded link to the document's current file.
	AccessURL(ctx context.Context, ident model.Identity, id string, extended bool) (string, error)

	// Versions returns the full version history, oldest first.
	Versions(ctx context.Context, ident model.Identity, id string) ([]model.DocumentVersion, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	repo     repository.DocumentRepository
	versions repository.VersionRepository
	ns       storage.Namespace
	renderer render.Renderer
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(repo repository.DocumentRepository, versions repository.VersionRepository, ns storage.Namespace, renderer render.Renderer) DocumentService {
	return &documentService{repo: repo, versions: versions, ns: ns, renderer: renderer}
}

func (s *documentService) List(ctx context.Context, ident model.Identity) ([]model.Document, error) {
	docs, err := s.repo.List(ctx, auth.ScopeFor(ident))
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", ErrUpstream, err)
	}
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, ident model.Identity, id string) (*model.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	return s.findScoped(ctx, ident, id)
}

func (s *documentService) Create(ctx context.Context, ident model.Identity, input CreateDocumentInput) (*model.Document, error) {
	if !auth.CanCreate(ident.Role) {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := input.Status
	if status == "" {
		status = model.StatusDraft
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:        id,
		CreatorID: ident.UserID,
		CompanyID: ident.CompanyID,
		SignerID:  input.SignerID,
		Name:      input.Name,
		Status:    status,
		Content:   input.Content,
		IsPrivate: input.IsPrivate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: create document: %v", ErrUpstream, err)
	}
	return stored, nil
}

func (s *documentService) Update(ctx context.Context, ident model.Identity, id string, patch model.DocumentPatch) (*model.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if patch.Empty() {
		return nil, fmt.Errorf("%w: empty update", ErrValidation)
	}

	scope := auth.ScopeFor(ident)
	doc, err := s.findScoped(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	fileChanged := patch.ChangesFile(doc.FileName)

	updated, err := s.repo.Update(ctx, id, scope, patch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: update document: %v", ErrUpstream, err)
	}

	if fileChanged {
		if _, err := s.versions.Append(ctx, id, updated.FileName); err != nil {
			// Roll the row back so no accepted update exists without its
			// version record.
			prior := doc.FileName
			if _, rbErr := s.repo.Update(ctx, id, scope, model.DocumentPatch{FileName: &prior}); rbErr != nil {
				return nil, fmt.Errorf("%w: append version: %v; rollback failed: %v", ErrUpstream, err, rbErr)
			}
			return nil, fmt.Errorf("%w: append version: %v", ErrUpstream, err)
		}
	}
	return updated, nil
}

// Delete cascades version history, then the blob folder, then the row. The
// row goes last: a partial failure leaves it intact and indexable, so the
// delete can simply be retried.
func (s *documentService) Delete(ctx context.Context, ident model.Identity, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}
	scope := auth.ScopeFor(ident)
	if _, err := s.findScoped(ctx, ident, id); err != nil {
		return err
	}

	if err := s.versions.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("%w: delete version history: %v", ErrUpstream, err)
	}
	if err := s.ns.DeleteFolder(ctx, id); err != nil {
		return fmt.Errorf("%w: delete blob folder: %v", ErrUpstream, err)
	}

	deleted, err := s.repo.Delete(ctx, id, scope)
	if err != nil {
		return fmt.Errorf("%w: delete document: %v", ErrUpstream, err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *documentService) Upload(ctx context.Context, ident model.Identity, id string, r io.Reader, originalName, contentType string, size int64) (*UploadResult, error) {
	if !auth.CanCreate(ident.Role) {
		return nil, ErrForbidden
	}
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if r == nil || originalName == "" {
		return nil, fmt.Errorf("%w: no file uploaded", ErrValidation)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", ErrValidation, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", ErrValidation)
	}

	scope := auth.ScopeFor(ident)
	doc, err := s.findScoped(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	key, err := s.ns.PutDocument(ctx, id, originalName, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: store file: %v", ErrUpstream, err)
	}
	// The stored name is the token-prefixed tail of the object key; rendered
	// derivatives nest under it.
	fileName := key[strings.IndexByte(key, '/')+1:]

	prior := doc.FileName
	if _, err := s.repo.Update(ctx, id, scope, model.DocumentPatch{FileName: &fileName}); err != nil {
		s.discardBlob(ctx, key)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: record file: %v", ErrUpstream, err)
	}

	version, err := s.versions.Append(ctx, id, fileName)
	if err != nil {
		// Unwind to the prior file reference; the new blob is discarded so no
		// version ever points at an unrecorded upload.
		if _, rbErr := s.repo.Update(ctx, id, scope, model.DocumentPatch{FileName: &prior}); rbErr != nil {
			log.Printf("upload: file_name rollback failed for %s: %v", id, rbErr)
		}
		s.discardBlob(ctx, key)
		return nil, fmt.Errorf("%w: append version: %v", ErrUpstream, err)
	}

	result := &UploadResult{DocumentID: id, FileName: fileName, Version: version.Version}

	// First accepted upload of a PDF also produces page images.
	if version.Version == 1 && strings.HasPrefix(contentType, "application/pdf") {
		pages, err := s.renderer.RenderPages(ctx, id, fileName, data)
		if err != nil {
			if errors.Is(err, render.ErrNotPDF) {
				return nil, fmt.Errorf("%w: %v", ErrValidation, err)
			}
			return nil, fmt.Errorf("%w: render pages: %v", ErrUpstream, err)
		}
		result.Pages = pages
	}

	return result, nil
}

func (s *documentService) AccessURL(ctx context.Context, ident model.Identity, id string, extended bool) (string, error) {
	doc, err := s.Get(ctx, ident, id)
	if err != nil {
		return "", err
	}
	if doc.FileName == "" {
		return "", fmt.Errorf("%w: document has no file", ErrValidation)
	}
	u, err := s.ns.SignedURL(ctx, doc.ID+"/"+doc.FileName, extended)
	if err != nil {
		return "", fmt.Errorf("%w: sign url: %v", ErrUpstream, err)
	}
	return u, nil
}

func (s *documentService) Versions(ctx context.Context, ident model.Identity, id string) ([]model.DocumentVersion, error) {
	if _, err := s.Get(ctx, ident, id); err != nil {
		return nil, err
	}
	versions, err := s.versions.ListByDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: list versions: %v", ErrUpstream, err)
	}
	return versions, nil
}

// findScoped fetches the document through the caller's scope, collapsing
// out-of-scope and nonexistent into the same ErrNotFound.
func (s *documentService) findScoped(ctx context.Context, ident model.Identity, id string) (*model.Document, error) {
	doc, err := s.repo.FindByID(ctx, id, auth.ScopeFor(ident))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: find document: %v", ErrUpstream, err)
	}
	return doc, nil
}

// discardBlob removes an orphaned upload after a failed write; failures are
// logged only, the primary error wins.
func (s *documentService) discardBlob(ctx context.Context, key string) {
	if err := s.ns.Delete(ctx, key); err != nil {
		log.Printf("upload: rollback delete failed for %s: %v", key, err)
	}
}
