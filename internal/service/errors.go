package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyCart          = errors.New("cart is empty")
)

var (
	ErrMissingFields    = fmt.Errorf("all fields are required: %w", ErrValidation)
	ErrPasswordMismatch = fmt.Errorf("passwords do not match: %w", ErrValidation)
	ErrUsernameTaken    = fmt.Errorf("username already exists: %w", ErrValidation)
	ErrEmailTaken       = fmt.Errorf("email already registered: %w", ErrValidation)
	ErrPasswordTooLong  = fmt.Errorf("password is too long: %w", ErrValidation)
	ErrInvalidQuantity  = fmt.Errorf("invalid quantity: %w", ErrValidation)
)
