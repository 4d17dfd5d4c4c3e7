package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"signdocs/internal/config"
	"signdocs/internal/storage/mocks"
)

// fakePages makes the rasterizer seam drop the given page files into the
// scratch directory, standing in for pdftoppm's output.
func fakePages(t *testing.T, names ...string) func(ctx context.Context, pdfPath, outPrefix string) error {
	t.Helper()
	return func(ctx context.Context, pdfPath, outPrefix string) error {
		dir := filepath.Dir(outPrefix)
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("png"), 0o600); err != nil {
				return err
			}
		}
		return nil
	}
}

func newTestPipeline(ns *mocks.MockNamespace) *Pipeline {
	p := NewPipeline(ns, config.RenderConfig{})
	p.countPages = func(data []byte) (int, error) { return 2, nil }
	return p
}

func TestPipeline_RenderPages(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads one image per page and returns its url", func(t *testing.T) {
		ns := new(mocks.MockNamespace)
		p := newTestPipeline(ns)
		p.rasterize = fakePages(t, "page-1.png", "page-2.png")

		ns.On("PutPageImage", mock.Anything, "doc-1", "contract.pdf", 1, mock.Anything, int64(3)).
			Return("doc-1/contract.pdf/t-page_1.png", nil).Once()
		ns.On("PutPageImage", mock.Anything, "doc-1", "contract.pdf", 2, mock.Anything, int64(3)).
			Return("doc-1/contract.pdf/t-page_2.png", nil).Once()
		ns.On("SignedURL", mock.Anything, "doc-1/contract.pdf/t-page_1.png", false).
			Return("https://example/p1", nil).Once()
		ns.On("SignedURL", mock.Anything, "doc-1/contract.pdf/t-page_2.png", false).
			Return("https://example/p2", nil).Once()

		urls, err := p.RenderPages(ctx, "doc-1", "contract.pdf", []byte("%PDF"))

		assert.NoError(t, err)
		assert.Equal(t, map[int]string{1: "https://example/p1", 2: "https://example/p2"}, urls)
		ns.AssertExpectations(t)
	})

	t.Run("zero-padded page names parse correctly", func(t *testing.T) {
		ns := new(mocks.MockNamespace)
		p := newTestPipeline(ns)
		p.rasterize = fakePages(t, "page-07.png")

		ns.On("PutPageImage", mock.Anything, "doc-1", "contract.pdf", 7, mock.Anything, mock.Anything).
			Return("key-7", nil).Once()
		ns.On("SignedURL", mock.Anything, "key-7", false).Return("u7", nil).Once()

		urls, err := p.RenderPages(ctx, "doc-1", "contract.pdf", []byte("%PDF"))

		assert.NoError(t, err)
		assert.Equal(t, "u7", urls[7])
	})

	t.Run("non-page files in scratch are ignored", func(t *testing.T) {
		ns := new(mocks.MockNamespace)
		p := newTestPipeline(ns)
		p.rasterize = fakePages(t, "page-1.png", "notes.txt")

		ns.On("PutPageImage", mock.Anything, "doc-1", "contract.pdf", 1, mock.Anything, mock.Anything).
			Return("key-1", nil).Once()
		ns.On("SignedURL", mock.Anything, "key-1", false).Return("u1", nil).Once()

		urls, err := p.RenderPages(ctx, "doc-1", "contract.pdf", []byte("%PDF"))

		assert.NoError(t, err)
		assert.Len(t, urls, 1)
		ns.AssertExpectations(t)
	})

	t.Run("rejects bytes that are not a pdf", func(t *testing.T) {
		ns := new(mocks.MockNamespace)
		p := NewPipeline(ns, config.RenderConfig{})

		urls, err := p.RenderPages(ctx, "doc-1", "contract.pdf", []byte("plain text"))

		assert.ErrorIs(t, err, ErrNotPDF)
		assert.Nil(t, urls)
		ns.AssertNotCalled(t, "PutPageImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty rasterizer output reports no pages", func(t *testing.T) {
		ns := new(mocks.MockNamespace)
		p := newTestPipeline(ns)
		p.rasterize = fakePages(t)

		urls, err := p.RenderPages(ctx, "doc-1", "contract.pdf", []byte("%PDF"))

		assert.ErrorIs(t, err, ErrNoPages)
		assert.Nil(t, urls)
	})

	t.Run("rasterizer failure surfaces", func(t *testing.T) {
		ns := new(mocks.MockNamespace)
		p := newTestPipeline(ns)
		boom := errors.New("pdftoppm: exit status 1")
		p.rasterize = func(ctx context.Context, pdfPath, outPrefix string) error { return boom }

		urls, err := p.RenderPages(ctx, "doc-1", "contract.pdf", []byte("%PDF"))

		assert.ErrorIs(t, err, boom)
		assert.Nil(t, urls)
	})

	t.Run("scratch directory is removed on success and failure", func(t *testing.T) {
		ns := new(mocks.MockNamespace)
		p := newTestPipeline(ns)

		var scratch string
		p.rasterize = func(ctx context.Context, pdfPath, outPrefix string) error {
			scratch = filepath.Dir(outPrefix)
			return os.WriteFile(filepath.Join(scratch, "page-1.png"), []byte("png"), 0o600)
		}
		ns.On("PutPageImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("key-1", nil)
		ns.On("SignedURL", mock.Anything, "key-1", false).Return("u1", nil)

		_, err := p.RenderPages(ctx, "doc-1", "contract.pdf", []byte("%PDF"))
		assert.NoError(t, err)
		assert.NotEmpty(t, scratch)
		_, statErr := os.Stat(scratch)
		assert.True(t, os.IsNotExist(statErr))

		p.rasterize = func(ctx context.Context, pdfPath, outPrefix string) error {
			scratch = filepath.Dir(outPrefix)
			return errors.New("boom")
		}
		_, err = p.RenderPages(ctx, "doc-1", "contract.pdf", []byte("%PDF"))
		assert.Error(t, err)
		_, statErr = os.Stat(scratch)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("upload failure surfaces", func(t *testing.T) {
		ns := new(mocks.MockNamespace)
		p := newTestPipeline(ns)
		p.rasterize = fakePages(t, "page-1.png")

		ns.On("PutPageImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("bucket unavailable"))

		urls, err := p.RenderPages(ctx, "doc-1", "contract.pdf", []byte("%PDF"))

		assert.Error(t, err)
		assert.Nil(t, urls)
	})
}
