package leave

import "errors"

var (
	ErrNotFound      = errors.New("leave record not found")
	ErrInvalidState  = errors.New("leave request is not pending")
	ErrForbidden     = errors.New("actor may not decide this request")
	ErrValidation    = errors.New("invalid leave payload")
	ErrConflict      = errors.New("balance changed concurrently")
	ErrAlreadyExists = errors.New("record already exists")
)
