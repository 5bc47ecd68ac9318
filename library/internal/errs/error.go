package errs

import (
	"errors"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("book is already borrowed")
	ErrBadRequest = errors.New("bad request")
)
