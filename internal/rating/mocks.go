package rating

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRatingRepository struct {
	mock.Mock
}

func (m *MockRatingRepository) GetRating(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockRatingRepository) UpdateRating(ctx context.Context, userID string, rating int) error {
	args := m.Called(ctx, userID, rating)
	return args.Error(0)
}

func (m *MockRatingRepository) AppendHistory(ctx context.Context, entry *HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRatingRepository) InsertHistoryIfAbsent(ctx context.Context, entry *HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRatingRepository) CountHistory(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

func (m *MockRatingRepository) ListHistory(ctx context.Context, userID string) ([]HistoryEntry, error) {
	args := m.Called(ctx, userID)
	entries, _ := args.Get(0).([]HistoryEntry)
	return entries, args.Error(1)
}
