package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("resource already exists")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrBadRequest       = errors.New("bad request")
	ErrInternalServer   = errors.New("internal server error")

	// Account state errors
	ErrAccountDisabled     = errors.New("account is disabled")
	ErrAccountInvalid      = errors.New("account is outside its validity dates")
	ErrAccountInaccessible = errors.New("account is outside its access window")
	ErrPasswordExpired     = errors.New("password is expired and must be reset")
)
