// Package render converts an uploaded PDF into one PNG per page and places
// the images under the document's derivative blob prefix. Each invocation
// works in its own scratch directory and releases it on every exit path.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"signdocs/internal/config"
	"signdocs/internal/storage"
)

var (
	// ErrNotPDF is returned when the input bytes are not a readable PDF.
	ErrNotPDF = errors.New("input is not a readable pdf")
	// ErrNoPages is returned when the rasterizer produced no page images.
	ErrNoPages = errors.New("rasterizer produced no pages")
)

// pageNumber extracts the page index from the rasterizer's output names
// (e.g. page-1.png, page-07.png). The rasterizer's numbering is canonical.
var pageNumber = regexp.MustCompile(`-(\d+)\.png$`)

// Renderer produces a page→signed-URL map for an uploaded document.
type Renderer interface {
	RenderPages(ctx context.Context, documentID, fileName string, data []byte) (map[int]string, error)
}

// Pipeline implements Renderer on top of the poppler pdftoppm binary and a
// storage namespace for the resulting images.
type Pipeline struct {
	ns storage.Namespace

	// seams for tests, defaulting to the real implementations
	countPages func(data []byte) (int, error)
	rasterize  func(ctx context.Context, pdfPath, outPrefix string) error
}

// NewPipeline builds a Pipeline using cfg.PdftoppmPath as the rasterizer.
func NewPipeline(ns storage.Namespace, cfg config.RenderConfig) *Pipeline {
	bin := cfg.PdftoppmPath
	if bin == "" {
		bin = "pdftoppm"
	}
	return &Pipeline{
		ns:         ns,
		countPages: pdfPageCount,
		rasterize: func(ctx context.Context, pdfPath, outPrefix string) error {
			cmd := exec.CommandContext(ctx, bin, "-png", pdfPath, outPrefix)
			if out, err := cmd.CombinedOutput(); err != nil {
				return fmt.Errorf("pdftoppm: %w: %s", err, bytes.TrimSpace(out))
			}
			return nil
		},
	}
}

// RenderPages rasterizes every page of the document to PNG, uploads each
// image under "{documentID}/{fileName}/", and returns pageNumber → signed URL.
// The scratch directory is unique per invocation, so concurrent renders of
// the same document never observe each other's intermediate files.
func (p *Pipeline) RenderPages(ctx context.Context, documentID, fileName string, data []byte) (map[int]string, error) {
	if _, err := p.countPages(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	scratch, err := os.MkdirTemp("", "render-"+uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	// Released on success and on every failure path. A cleanup failure is
	// logged and never masks the primary error.
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			log.Printf("render: scratch cleanup failed for %s: %v", scratch, rmErr)
		}
	}()

	input := filepath.Join(scratch, "input.pdf")
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, fmt.Errorf("write scratch pdf: %w", err)
	}

	if err := p.rasterize(ctx, input, filepath.Join(scratch, "page")); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		return nil, fmt.Errorf("read scratch dir: %w", err)
	}

	urls := make(map[int]string)
	for _, entry := range entries {
		m := pageNumber.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		img, err := os.ReadFile(filepath.Join(scratch, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", page, err)
		}
		key, err := p.ns.PutPageImage(ctx, documentID, fileName, page, bytes.NewReader(img), int64(len(img)))
		if err != nil {
			return nil, fmt.Errorf("upload page %d: %w", page, err)
		}
		u, err := p.ns.SignedURL(ctx, key, false)
		if err != nil {
			return nil, fmt.Errorf("sign page %d: %w", page, err)
		}
		urls[page] = u
	}

	if len(urls) == 0 {
		return nil, ErrNoPages
	}
	return urls, nil
}

// pdfPageCount validates the bytes as a PDF and returns its page count.
func pdfPageCount(data []byte) (int, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return doc.NumPage(), nil
}
