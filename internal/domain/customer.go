package domain

import (
	"strings"
	"time"
)

type Customer struct {
	ID        int
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Address   *string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
