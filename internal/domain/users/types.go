package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/terrastories/server/internal/auth"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email is already taken")
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         auth.Role
	CommunityID  *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Filters struct {
	CommunityID *uuid.UUID
	Role        *auth.Role
	Limit       int
	Offset      int
}

type ListResult struct {
	Users []User
	Total int64
}

type Repository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters Filters) (ListResult, error)
}
