package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 6
)

type UserService struct {
	repo       UserRepository
	tokens     *TokenIssuer
	bcryptCost int
	logger     *zap.SugaredLogger
}

func NewUserService(repo UserRepository, tokens *TokenIssuer) *UserService {
	return &UserService{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger.NewNamedLogger("user"),
	}
}

func (r *SignupRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if err := validateUsername(r.Username); err != nil {
		return err
	}
	if len(r.Password) < minPasswordLen {
		return apperrors.Validation("password must have at least 6 characters")
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			return apperrors.Validation("email is not valid")
		}
	}
	return nil
}

func validateUsername(username string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return apperrors.Validation("username must have between 3 and 32 characters")
	}
	return nil
}

func (u *UserService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), u.bcryptCost)
	if err != nil {
		return nil, apperrors.NewAppError(500, "error hashing password", err)
	}

	account := &Account{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: string(hashed),
	}
	if req.Email != "" {
		email := req.Email
		account.Email = &email
	}
	if err := u.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	u.logger.Infof("Account created for %s", account.Username)

	return u.signIn(ctx, account)
}

func (u *UserService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	account, err := u.repo.FindAccountByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	return u.signIn(ctx, account)
}

func (u *UserService) signIn(ctx context.Context, account *Account) (*AuthResponse, error) {
	profile, err := u.EnsureProfile(ctx, account.ID, account.Username, account.Email)
	if err != nil {
		return nil, err
	}
	token, _, err := u.tokens.Generate(account.ID, account.Username)
	if err != nil {
		return nil, apperrors.NewAppError(500, "error creating jwt token", err)
	}
	return &AuthResponse{Token: token, Profile: profile}, nil
}

// EnsureProfile returns the user's profile, creating it with the default rating on first sign-in.
func (u *UserService) EnsureProfile(ctx context.Context, id, username string, email *string) (*Profile, error) {
	profile, err := u.repo.GetProfile(ctx, id)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	u.logger.Infof("Creating profile for %s", id)
	return u.repo.CreateProfileIfAbsent(ctx, &Profile{
		ID:       id,
		Username: username,
		Email:    email,
		Rating:   DefaultRating,
	})
}

func (u *UserService) GetProfile(ctx context.Context, id string) (*Profile, error) {
	return u.repo.GetProfile(ctx, id)
}

func (u *UserService) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*Profile, error) {
	updates := map[string]interface{}{}
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if err := validateUsername(name); err != nil {
			return nil, err
		}
		updates["username"] = name
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*req.AvatarURL)
	}
	if len(updates) == 0 {
		return nil, apperrors.Validation("nothing to update")
	}
	if err := u.repo.UpdateProfile(ctx, id, updates); err != nil {
		return nil, err
	}
	return u.repo.GetProfile(ctx, id)
}
