package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes long")
	ErrDisplayNameTooLong = errors.New("display name is too long (max 50 chars)")
)

const (
	MaxDisplayNameLen = 50
	MinPasswordLen    = 8

	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	passwordCost     = 12
)

// User owns habits and the set of badges unlocked so far. Badges live in
// their own column and are only touched through BadgeRepository.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Profile
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser validates the email and display name. An empty display name falls
// back to the local part of the email as typed.
func NewUser(id, email, displayName string) (*User, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}
	if utf8.RuneCountInString(displayName) > MaxDisplayNameLen {
		return nil, ErrDisplayNameTooLong
	}

	now := time.Now().UTC()
	return &User{
		ID:          id,
		Email:       NormalizeEmail(email),
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (u *User) SetPassword(plainPassword string) error {
	switch {
	case utf8.RuneCountInString(plainPassword) < MinPasswordLen:
		return ErrPasswordTooShort
	case len(plainPassword) > maxPasswordBytes:
		return ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), passwordCost)
	if err != nil {
		return err
	}

	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (u *User) CheckPassword(plainPassword string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plainPassword))
}
