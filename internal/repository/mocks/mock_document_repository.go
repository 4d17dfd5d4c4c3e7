package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"signdocs/internal/auth"
	"signdocs/internal/model"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string, scope auth.Scope) (*model.Document, error) {
	args := m.Called(ctx, id, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, scope auth.Scope) ([]model.Document, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, id string, scope auth.Scope, patch model.DocumentPatch) (*model.Document, error) {
	args := m.Called(ctx, id, scope, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string, scope auth.Scope) (bool, error) {
	args := m.Called(ctx, id, scope)
	return args.Bool(0), args.Error(1)
}

type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) Append(ctx context.Context, documentID, fileName string) (*model.DocumentVersion, error) {
	args := m.Called(ctx, documentID, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockVersionRepository) ListByDocument(ctx context.Context, documentID string) ([]model.DocumentVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentVersion), args.Error(1)
}

func (m *MockVersionRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}
