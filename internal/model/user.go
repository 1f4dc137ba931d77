package model

import (
	"errors"
	"strings"
	"time"
)

// User is anyone who can sign in: students claim items, staff run the office.
type User struct {
	ID           string    `json:"id"`
	Email        *string   `json:"email,omitempty"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	StudentID    *string   `json:"studentId,omitempty"`
	PasswordHash string    `json:"-"`
	ExternalID   *string   `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FullName returns the display name used in claim listings.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Roles.
const (
	RoleStaff   = "staff"
	RoleStudent = "student"
)

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return role == RoleStaff || role == RoleStudent
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// ValidatePassword checks that a password meets minimum requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

// Caller is the authenticated identity a request acts as. The zero value is
// an anonymous caller.
type Caller struct {
	ID   string
	Role string
}

// Authenticated reports whether the caller carries an identity.
func (c Caller) Authenticated() bool {
	return c.ID != ""
}

// IsStaff reports whether the caller is a staff member.
func (c Caller) IsStaff() bool {
	return c.ID != "" && c.Role == RoleStaff
}

// IsStudent reports whether the caller is a student.
func (c Caller) IsStudent() bool {
	return c.ID != "" && c.Role == RoleStudent
}
