// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// bearerPrefix is the conventional Authorization header scheme.
const bearerPrefix = "Bearer "

// dummyPasswordHash is verified against when a user doesn't exist, so that
// lookup misses and password mismatches take comparable time. This is NOT a
// real credential; the comparison result is discarded.
//
//nolint:gosec // G101: intentionally fake hash for timing uniformity, not a credential.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     Role
}

// Service owns the credential and session operations: storing users with
// hashed passwords, verifying credentials, and issuing/validating bearer
// tokens.
type Service struct {
	users  UserRepository
	hasher PasswordHasher
	tokens *TokenIssuer
}

// NewService creates a Service. All dependencies are required.
func NewService(users UserRepository, hasher PasswordHasher, tokens *TokenIssuer) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("token issuer is required")
	}
	return &Service{users: users, hasher: hasher, tokens: tokens}, nil
}

// Register creates a user and issues a token bound to the new identity.
// The raw password is hashed before the record is written and never stored
// or logged. Returns ErrDuplicateEmail if the email is already taken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	email := NormalizeEmail(in.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, "", oops.Code("AUTH_VALIDATION").Wrap(errors.Join(ErrValidation, err))
	}
	if in.Password == "" {
		return nil, "", oops.Code("AUTH_VALIDATION").
			Wrapf(ErrValidation, "password cannot be empty")
	}

	role := in.Role
	if role == "" {
		role = RoleVolunteer
	}
	if !role.Valid() {
		return nil, "", oops.Code("AUTH_VALIDATION").
			With("role", string(role)).
			Wrapf(ErrValidation, "unknown role")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Uniqueness is enforced by the store's unique index; concurrent
	// registrations with the same email race there, not here.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, "", err
		}
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}
	return user, token, nil
}

// Login verifies credentials and issues a token. An unknown email and a
// wrong password both return ErrInvalidCredentials; a dummy hash is
// verified on lookup misses to keep response timing uniform.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, lookupErr := s.users.GetByEmail(ctx, NormalizeEmail(email))

	targetHash := dummyPasswordHash
	userExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, "", oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !userExists || !valid {
		return nil, "", ErrInvalidCredentials
	}

	// Transparent cost upgrade while the plaintext is in hand. Login
	// succeeds regardless of the outcome.
	if s.hasher.NeedsRehash(user.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			if updErr := s.users.UpdatePassword(ctx, user.ID, newHash); updErr == nil {
				user.PasswordHash = newHash
			}
		}
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}
	return user, token, nil
}

// Authenticate resolves an Authorization header value back to a user.
// Returns ErrMissingToken when no bearer token is present, ErrInvalidToken
// when verification fails, and ErrUserNotFound when the referenced record
// no longer exists.
func (s *Service) Authenticate(ctx context.Context, authorization string) (*User, error) {
	token := extractBearer(authorization)
	if token == "" {
		return nil, ErrMissingToken
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	id, err := ulid.Parse(userID)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_INVALID").Wrap(ErrInvalidToken)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, oops.Code("AUTH_AUTHENTICATE_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}
	return user, nil
}

// VerifyPassword reports whether the candidate matches the user's stored
// hash. Never compares plaintext directly.
func (s *Service) VerifyPassword(user *User, candidate string) bool {
	ok, err := s.hasher.Verify(candidate, user.PasswordHash)
	return err == nil && ok
}

// SetPassword sets the password field for a user. A value already in the
// store's hash format is passed through unchanged; re-hashing a hash would
// permanently lock the account out. Plaintext is hashed with a fresh salt.
func (s *Service) SetPassword(ctx context.Context, id ulid.ULID, value string) error {
	hash := value
	if !s.hasher.IsHash(value) {
		var err error
		hash, err = s.hasher.Hash(value)
		if err != nil {
			return oops.Code("AUTH_SET_PASSWORD_FAILED").
				With("operation", "hash password").
				Wrap(err)
		}
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return oops.Code("AUTH_SET_PASSWORD_FAILED").
			With("operation", "update password").
			Wrap(err)
	}
	return nil
}

// UpdateProfile updates the display name. The password hash is not part of
// this write path and is never touched by it.
func (s *Service) UpdateProfile(ctx context.Context, id ulid.ULID, name string) error {
	if err := s.users.UpdateProfile(ctx, id, strings.TrimSpace(name)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return oops.Code("AUTH_UPDATE_PROFILE_FAILED").
			With("operation", "update profile").
			Wrap(err)
	}
	return nil
}

// extractBearer returns the token from a "Bearer <token>" header value,
// or "" when the scheme is absent.
func extractBearer(authorization string) string {
	if strings.HasPrefix(authorization, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authorization, bearerPrefix))
	}
	return ""
}
