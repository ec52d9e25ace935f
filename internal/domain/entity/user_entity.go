package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the identity domain.
// Passwords are stored as bcrypt hashes in Password field.
type User struct {
	ID               int64
	FirstName        string
	LastName         string
	Email            string
	Password         string
	Role             Role
	RegistrationDate time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
