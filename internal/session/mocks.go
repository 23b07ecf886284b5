package session

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thesrcielos/TopCodeBattle/internal/user"
)

type MockProfileEnsurer struct {
	mock.Mock
}

func (m *MockProfileEnsurer) EnsureProfile(ctx context.Context, id, username string, email *string) (*user.Profile, error) {
	args := m.Called(ctx, id, username, email)
	p, _ := args.Get(0).(*user.Profile)
	return p, args.Error(1)
}
