package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"signdocs/internal/model"
	"signdocs/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context, ident model.Identity) ([]model.Document, error) {
	args := m.Called(ctx, ident)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, ident model.Identity, id string) (*model.Document, error) {
	args := m.Called(ctx, ident, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Create(ctx context.Context, ident model.Identity, input service.CreateDocumentInput) (*model.Document, error) {
	args := m.Called(ctx, ident, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, ident model.Identity, id string, patch model.DocumentPatch) (*model.Document, error) {
	args := m.Called(ctx, ident, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, ident model.Identity, id string) error {
	args := m.Called(ctx, ident, id)
	return args.Error(0)
}

func (m *MockDocumentService) Upload(ctx context.Context, ident model.Identity, id string, r io.Reader, originalName, contentType string, size int64) (*service.UploadResult, error) {
	args := m.Called(ctx, ident, id, r, originalName, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *MockDocumentService) AccessURL(ctx context.Context, ident model.Identity, id string, extended bool) (string, error) {
	args := m.Called(ctx, ident, id, extended)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) Versions(ctx context.Context, ident model.Identity, id string) ([]model.DocumentVersion, error) {
	args := m.Called(ctx, ident, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentVersion), args.Error(1)
}
