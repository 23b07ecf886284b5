package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(t *testing.T) (*UserService, *MockUserRepository) {
	mockRepo := &MockUserRepository{}
	t.Cleanup(func() { mockRepo.AssertExpectations(t) })
	service := NewUserService(mockRepo, NewTokenIssuer([]byte("test-secret"), time.Hour))
	service.bcryptCost = bcrypt.MinCost
	return service, mockRepo
}

func hash(t *testing.T, password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestUserService_Signup(t *testing.T) {
	service, mockRepo := newTestUserService(t)
	ctx := context.Background()

	mockRepo.On("CreateAccount", ctx, mock.MatchedBy(func(a *Account) bool {
		return a.Username == "alice" && a.Email != nil && *a.Email == "alice@example.com" &&
			bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("secret1")) == nil
	})).Return(nil)
	mockRepo.On("GetProfile", ctx, mock.AnythingOfType("string")).Return(nil, apperrors.NotFound("profile not found"))
	mockRepo.On("CreateProfileIfAbsent", ctx, mock.MatchedBy(func(p *Profile) bool {
		return p.Username == "alice" && p.Rating == DefaultRating
	})).Return(&Profile{ID: "u1", Username: "alice", Rating: DefaultRating}, nil)

	resp, err := service.Signup(ctx, SignupRequest{Username: " alice ", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, DefaultRating, resp.Profile.Rating)

	claims, err := service.tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestUserService_Signup_Validation(t *testing.T) {
	service, _ := newTestUserService(t)
	ctx := context.Background()

	_, err := service.Signup(ctx, SignupRequest{Username: "al", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.Signup(ctx, SignupRequest{Username: "alice", Password: "123"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = service.Signup(ctx, SignupRequest{Username: "alice", Password: "secret1", Email: "not-an-email"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUserService_Signup_Error(t *testing.T) {
	service, mockRepo := newTestUserService(t)
	ctx := context.Background()
	mockRepo.On("CreateAccount", ctx, mock.Anything).Return(apperrors.Conflict("user already exists"))

	_, err := service.Signup(ctx, SignupRequest{Username: "alice", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestUserService_Login_CreatesProfileOnFirstSignIn(t *testing.T) {
	service, mockRepo := newTestUserService(t)
	ctx := context.Background()
	account := &Account{ID: "u2", Username: "bob", PasswordHash: hash(t, "hunter22")}

	mockRepo.On("FindAccountByUsername", ctx, "bob").Return(account, nil)
	mockRepo.On("GetProfile", ctx, "u2").Return(nil, apperrors.NotFound("profile not found"))
	mockRepo.On("CreateProfileIfAbsent", ctx, mock.MatchedBy(func(p *Profile) bool {
		return p.ID == "u2" && p.Rating == DefaultRating
	})).Return(&Profile{ID: "u2", Username: "bob", Rating: DefaultRating}, nil)

	resp, err := service.Login(ctx, LoginRequest{Username: "bob", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "u2", resp.Profile.ID)
}

func TestUserService_Login_ExistingProfile(t *testing.T) {
	service, mockRepo := newTestUserService(t)
	ctx := context.Background()
	account := &Account{ID: "u2", Username: "bob", PasswordHash: hash(t, "hunter22")}

	mockRepo.On("FindAccountByUsername", ctx, "bob").Return(account, nil)
	mockRepo.On("GetProfile", ctx, "u2").Return(&Profile{ID: "u2", Username: "bob", Rating: 1234}, nil)

	resp, err := service.Login(ctx, LoginRequest{Username: "bob", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, 1234, resp.Profile.Rating)
	mockRepo.AssertNotCalled(t, "CreateProfileIfAbsent", mock.Anything, mock.Anything)
}

func TestUserService_Login_InvalidCredentials(t *testing.T) {
	service, mockRepo := newTestUserService(t)
	ctx := context.Background()
	account := &Account{ID: "u2", Username: "bob", PasswordHash: hash(t, "hunter22")}
	mockRepo.On("FindAccountByUsername", ctx, "bob").Return(account, nil)
	mockRepo.On("FindAccountByUsername", ctx, "ghost").Return(nil, apperrors.NotFound("user not found"))

	_, err := service.Login(ctx, LoginRequest{Username: "bob", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = service.Login(ctx, LoginRequest{Username: "ghost", Password: "whatever"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUserService_EnsureProfile_PropagatesStoreFailure(t *testing.T) {
	service, mockRepo := newTestUserService(t)
	ctx := context.Background()
	mockRepo.On("GetProfile", ctx, "u3").Return(nil, apperrors.Persistence("Error getting profile", errors.New("timeout")))

	_, err := service.EnsureProfile(ctx, "u3", "carol", nil)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
}

func TestUserService_UpdateProfile(t *testing.T) {
	service, mockRepo := newTestUserService(t)
	ctx := context.Background()
	name := "carol2"
	avatar := "https://img.example.com/c.png"

	mockRepo.On("UpdateProfile", ctx, "u3", map[string]interface{}{"username": name, "avatar_url": avatar}).Return(nil)
	mockRepo.On("GetProfile", ctx, "u3").Return(&Profile{ID: "u3", Username: name, AvatarURL: &avatar}, nil)

	p, err := service.UpdateProfile(ctx, "u3", UpdateProfileRequest{Username: &name, AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, name, p.Username)

	_, err = service.UpdateProfile(ctx, "u3", UpdateProfileRequest{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
