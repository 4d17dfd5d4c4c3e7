package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"signdocs/internal/config"
)

// Namespace maps documents and their rendered derivatives onto the blob key
// space and owns the signed-URL TTL policy. Every blob of a document lives
// under the "{documentID}/" prefix; filenames carry a fresh unique token so
// re-uploads of the same name never collide.
type Namespace interface {
	// PutDocument stores a primary document file and returns its object key,
	// shaped "{documentID}/{token}-{originalName}".
	PutDocument(ctx context.Context, documentID, originalName string, r io.Reader, size int64, contentType string) (string, error)

	// PutPageImage stores one rendered page under the derivative prefix and
	// returns its object key, shaped "{documentID}/{fileName}/{token}-page_{n}.png".
	PutPageImage(ctx context.Context, documentID, fileName string, page int, r io.Reader, size int64) (string, error)

	// SignedURL issues a time-bounded access link for the key. The default
	// tier is short-lived; the extended tier is for explicitly requested
	// sharing links.
	SignedURL(ctx context.Context, key string, extended bool) (string, error)

	// Delete removes a single object by key.
	Delete(ctx context.Context, key string) error

	// ListFolder returns the keys of every blob under the document's prefix.
	ListFolder(ctx context.Context, documentID string) ([]string, error)

	// DeleteFolder removes exactly the blobs under the document's prefix.
	// An already-empty folder is a successful no-op.
	DeleteFolder(ctx context.Context, documentID string) error
}

type objectNamespace struct {
	store       Storage
	defaultTTL  time.Duration
	extendedTTL time.Duration
}

// NewNamespace builds a Namespace over the given store with the configured
// TTL tiers.
func NewNamespace(store Storage, cfg config.SignedURLConfig) Namespace {
	return &objectNamespace{
		store:       store,
		defaultTTL:  time.Duration(cfg.DefaultTTLSec) * time.Second,
		extendedTTL: time.Duration(cfg.ExtendedTTLSec) * time.Second,
	}
}

func (n *objectNamespace) PutDocument(ctx context.Context, documentID, originalName string, r io.Reader, size int64, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s-%s", documentID, uuid.NewString(), originalName)
	_, err := n.store.Put(ctx, key, r, PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalName,
		},
	})
	if err != nil {
		return "", fmt.Errorf("put document blob: %w", err)
	}
	return key, nil
}

func (n *objectNamespace) PutPageImage(ctx context.Context, documentID, fileName string, page int, r io.Reader, size int64) (string, error) {
	key := fmt.Sprintf("%s/%s/%s-page_%d.png", documentID, fileName, uuid.NewString(), page)
	_, err := n.store.Put(ctx, key, r, PutObjectOptions{
		Size:        size,
		ContentType: "image/png",
	})
	if err != nil {
		return "", fmt.Errorf("put page image: %w", err)
	}
	return key, nil
}

func (n *objectNamespace) SignedURL(ctx context.Context, key string, extended bool) (string, error) {
	ttl := n.defaultTTL
	if extended {
		ttl = n.extendedTTL
	}
	return n.store.PresignGet(ctx, key, ttl)
}

func (n *objectNamespace) Delete(ctx context.Context, key string) error {
	return n.store.Delete(ctx, key)
}

func (n *objectNamespace) ListFolder(ctx context.Context, documentID string) ([]string, error) {
	return n.store.List(ctx, documentID+"/")
}

// DeleteFolder lists the document's blobs first and bulk-deletes exactly that
// set, so sibling prefixes can never be touched.
func (n *objectNamespace) DeleteFolder(ctx context.Context, documentID string) error {
	keys, err := n.store.List(ctx, documentID+"/")
	if err != nil {
		return fmt.Errorf("list document folder: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := n.store.DeleteMany(ctx, keys); err != nil {
		return fmt.Errorf("delete document folder: %w", err)
	}
	return nil
}
