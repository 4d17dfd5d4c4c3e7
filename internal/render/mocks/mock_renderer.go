package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) RenderPages(ctx context.Context, documentID, fileName string, data []byte) (map[int]string, error) {
	args := m.Called(ctx, documentID, fileName, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]string), args.Error(1)
}
