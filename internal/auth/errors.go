// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a required field is missing or malformed.
// The caller can recover by resubmitting.
var ErrValidation = errors.New("validation failed")

// ErrDuplicateEmail is returned when creating a user with an email that is
// already registered (case-insensitive).
var ErrDuplicateEmail = errors.New("email already registered")

// ErrInvalidCredentials is returned for both an unknown email and a wrong
// password. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrMissingToken is returned when a protected request carries no bearer token.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken is returned when a token fails signature verification or
// carries a malformed payload.
var ErrInvalidToken = errors.New("invalid token")

// ErrUserNotFound is returned when a valid token references a user record
// that no longer exists.
var ErrUserNotFound = errors.New("token user not found")

// ErrForbidden is returned when an authenticated user lacks the role an
// operation requires.
var ErrForbidden = errors.New("forbidden")
