package catalog

import "errors"

var (
	ErrNotFound   = errors.New("not_found")
	ErrValidation = errors.New("validation error")
)
