package user

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateAccount(ctx context.Context, account *Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockUserRepository) FindAccountByUsername(ctx context.Context, username string) (*Account, error) {
	args := m.Called(ctx, username)
	a, _ := args.Get(0).(*Account)
	return a, args.Error(1)
}

func (m *MockUserRepository) GetProfile(ctx context.Context, id string) (*Profile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*Profile)
	return p, args.Error(1)
}

func (m *MockUserRepository) CreateProfileIfAbsent(ctx context.Context, profile *Profile) (*Profile, error) {
	args := m.Called(ctx, profile)
	p, _ := args.Get(0).(*Profile)
	return p, args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id string, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}
