package battle

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/thesrcielos/TopCodeBattle/internal/problem"
	"github.com/thesrcielos/TopCodeBattle/internal/rating"
)

type MockBattleRepository struct {
	mock.Mock
}

func (m *MockBattleRepository) CreateBattle(ctx context.Context, b *Battle) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBattleRepository) GetBattle(ctx context.Context, id string) (*Battle, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*Battle)
	return b, args.Error(1)
}

func (m *MockBattleRepository) MarkJoined(ctx context.Context, id, defenderID string, at time.Time) error {
	args := m.Called(ctx, id, defenderID, at)
	return args.Error(0)
}

func (m *MockBattleRepository) MarkCompleted(ctx context.Context, id, winnerID string, at time.Time) error {
	args := m.Called(ctx, id, winnerID, at)
	return args.Error(0)
}

func (m *MockBattleRepository) DeleteUnfinished(ctx context.Context, id, creatorID string) (bool, error) {
	args := m.Called(ctx, id, creatorID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBattleRepository) ListOpen(ctx context.Context, offset, limit int) ([]Battle, error) {
	args := m.Called(ctx, offset, limit)
	b, _ := args.Get(0).([]Battle)
	return b, args.Error(1)
}

func (m *MockBattleRepository) ListForUser(ctx context.Context, userID string, limit int) ([]Battle, error) {
	args := m.Called(ctx, userID, limit)
	b, _ := args.Get(0).([]Battle)
	return b, args.Error(1)
}

type MockProblemPicker struct {
	mock.Mock
}

func (m *MockProblemPicker) PickRandom(ctx context.Context) (*problem.Problem, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).(*problem.Problem)
	return p, args.Error(1)
}

type MockRater struct {
	mock.Mock
}

func (m *MockRater) ApplyBattleResult(ctx context.Context, result rating.BattleResult) ([]rating.RatingChange, error) {
	args := m.Called(ctx, result)
	c, _ := args.Get(0).([]rating.RatingChange)
	return c, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BattleJoined(ctx context.Context, b *Battle) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockNotifier) BattleCompleted(ctx context.Context, b *Battle, changes []rating.RatingChange) error {
	return m.Called(ctx, b, changes).Error(0)
}

func (m *MockNotifier) BattleAborted(ctx context.Context, battleID string) error {
	return m.Called(ctx, battleID).Error(0)
}
