package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockNamespace struct {
	mock.Mock
}

func (m *MockNamespace) PutDocument(ctx context.Context, documentID, originalName string, r io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, documentID, originalName, r, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockNamespace) PutPageImage(ctx context.Context, documentID, fileName string, page int, r io.Reader, size int64) (string, error) {
	args := m.Called(ctx, documentID, fileName, page, r, size)
	return args.String(0), args.Error(1)
}

func (m *MockNamespace) SignedURL(ctx context.Context, key string, extended bool) (string, error) {
	args := m.Called(ctx, key, extended)
	return args.String(0), args.Error(1)
}

func (m *MockNamespace) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockNamespace) ListFolder(ctx context.Context, documentID string) ([]string, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockNamespace) DeleteFolder(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}
