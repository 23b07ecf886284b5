package submission

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, submissionID string) error {
	return m.Called(ctx, submissionID).Error(0)
}
