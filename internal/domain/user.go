package domain

import (
	"slices"
	"time"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// User is an account of the identity provider. UserName is always the email.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Roles        []string
	CreatedAt    time.Time
}

func (u User) UserName() string {
	return u.Email
}

func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}
