package core

import "errors"

var (
	ErrNotFound      = errors.New("employee not found")
	ErrAlreadyExists = errors.New("employee already registered")
	ErrValidation    = errors.New("invalid employee payload")
)
