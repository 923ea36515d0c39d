package models

import "errors"

// ErrForbidden is returned when a user acts on a resource they do not own or their role does not allow.
var ErrForbidden = errors.New("forbidden")
