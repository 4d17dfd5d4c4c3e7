package model

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of a document. The set is extensible: the
// store keeps it as text, so new states can appear without a schema change.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusPending Status = "pending"
	StatusSigned  Status = "signed"
)

// Document represents a document record owned by a creator within a company.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID        string          `json:"id"`
	CreatorID string          `json:"creator_id"`
	CompanyID string          `json:"company_id"`
	SignerID  string          `json:"signer_id,omitempty"`
	Name      string          `json:"name"`
	Status    Status          `json:"status"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsPrivate bool            `json:"is_private"`
	FileName  string          `json:"file_name,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DocumentVersion marks one file change on a document. Versions are immutable:
// they are only appended (starting at 1, strictly increasing, no gaps) or
// removed together with their parent document.
type DocumentVersion struct {
	DocumentID string    `json:"document_id"`
	Version    int       `json:"version"`
	FileName   string    `json:"file_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentPatch carries a partial update. Nil pointers mean "leave unchanged",
// which keeps a deliberate zero value (e.g. clearing signer_id) expressible.
type DocumentPatch struct {
	Name      *string          `json:"name,omitempty"`
	Status    *Status          `json:"status,omitempty"`
	Content   *json.RawMessage `json:"content,omitempty"`
	SignerID  *string          `json:"signer_id,omitempty"`
	IsPrivate *bool            `json:"is_private,omitempty"`
	FileName  *string          `json:"file_name,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p DocumentPatch) Empty() bool {
	return p.Name == nil && p.Status == nil && p.Content == nil &&
		p.SignerID == nil && p.IsPrivate == nil && p.FileName == nil
}

// ChangesFile reports whether applying the patch would point the document at
// a different stored file. Only such updates grow the version history.
func (p DocumentPatch) ChangesFile(current string) bool {
	return p.FileName != nil && *p.FileName != current
}
