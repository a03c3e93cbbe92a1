// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

// Package auth provides credential storage and session authentication
// for Civicore.
package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role identifies the kind of account. It is stored but not enforced by
// any authorization logic in this package.
type Role string

// Known account roles.
const (
	RoleNGO       Role = "ngo"
	RoleVolunteer Role = "volunteer"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleNGO || r == RoleVolunteer
}

// emailRegex is a deliberately loose shape check. Real validation happens
// when mail is actually delivered; the store only needs "looks like an
// address" plus the uniqueness constraint.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User is the canonical account record. Name is optional at the storage
// level; the registration surface decides whether to require it.
type User struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	Points       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lowercases and trims an email for use as the comparison key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that the value has the shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_VALIDATION").Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_VALIDATION").
			With("email", email).
			Errorf("email is not a valid address")
	}
	return nil
}

// UserRepository manages user persistence. Email uniqueness is enforced by
// the storage layer (unique index on LOWER(email)), not by callers.
type UserRepository interface {
	// Create stores a new user. Returns ErrDuplicateEmail if the email is
	// already taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdateProfile updates the display name only. The password hash is
	// never touched by this path.
	UpdateProfile(ctx context.Context, id ulid.ULID, name string) error

	// UpdatePassword updates only the password hash for a user. Callers
	// must pass a value already in hash form (see Service.SetPassword).
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error
}
