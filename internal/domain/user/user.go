package user

import (
	"context"
	"strings"

	"github.com/forestcrm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// User is an internal staff member who participates in archives and
// postal correspondence. Authentication is handled outside this core;
// only the display fields matter here.
type User struct {
	shared.BaseEntity
	LastName  string `gorm:"type:varchar(100);not null"`
	FirstName string `gorm:"type:varchar(100);not null"`
	Email     string `gorm:"type:varchar(200);index"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates a user with display fields
func NewUser(lastName, firstName, email string) *User {
	return &User{
		BaseEntity: shared.NewBaseEntity(),
		LastName:   lastName,
		FirstName:  firstName,
		Email:      email,
	}
}

// FullName returns "LastName FirstName", the form used in cache reprs
func (u *User) FullName() string {
	return strings.TrimSpace(u.LastName + " " + u.FirstName)
}

// Repository defines persistence for users
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
	Save(ctx context.Context, u *User) error
}
