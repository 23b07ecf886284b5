package user

import "time"

const DefaultRating = 1000

// Account holds sign-in credentials.
type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:32" json:"username"`
	Email        *string   `gorm:"uniqueIndex;size:255" json:"email,omitempty"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the public face of an account. It shares the account id.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Username  string    `gorm:"not null;size:32" json:"username"`
	Email     *string   `gorm:"size:255" json:"email"`
	AvatarURL *string   `json:"avatar_url"`
	Rating    int       `gorm:"not null;default:1000" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type AuthResponse struct {
	Token   string   `json:"token"`
	Profile *Profile `json:"profile"`
}
