package problem

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type ProblemRepositoryMock struct {
	mock.Mock
}

func (m *ProblemRepositoryMock) GetProblem(ctx context.Context, id uint) (*Problem, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*Problem)
	return p, args.Error(1)
}

func (m *ProblemRepositoryMock) ListRecent(ctx context.Context, limit int) ([]Problem, error) {
	args := m.Called(ctx, limit)
	problems, _ := args.Get(0).([]Problem)
	return problems, args.Error(1)
}

func (m *ProblemRepositoryMock) CreateProblem(ctx context.Context, p *Problem) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProblemRepositoryMock) CountProblems(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
