package admin

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidRole     = errors.New("invalid role")
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,64}$`)

type Account struct {
	id           uuid.UUID
	username     string
	passwordHash string
	role         Role
	createdAt    time.Time
	lastLoginAt  *time.Time
}

func NewAccount(id uuid.UUID, username, passwordHash string, role Role) (*Account, error) {
	username = strings.TrimSpace(username)
	if !usernameRegex.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	return &Account{
		id:           id,
		username:     username,
		passwordHash: passwordHash,
		role:         role,
	}, nil
}

func Reconstruct(id uuid.UUID, username, passwordHash string, role Role, createdAt time.Time, lastLoginAt *time.Time) *Account {
	return &Account{
		id:           id,
		username:     username,
		passwordHash: passwordHash,
		role:         role,
		createdAt:    createdAt,
		lastLoginAt:  lastLoginAt,
	}
}

func (a *Account) ID() uuid.UUID           { return a.id }
func (a *Account) Username() string        { return a.username }
func (a *Account) PasswordHash() string    { return a.passwordHash }
func (a *Account) Role() Role              { return a.role }
func (a *Account) CreatedAt() time.Time    { return a.createdAt }
func (a *Account) LastLoginAt() *time.Time { return a.lastLoginAt }
