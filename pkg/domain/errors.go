package domain

import "errors"

// ErrRecordNotFound is returned when a record ID cannot be found in the store.
var ErrRecordNotFound = errors.New("record not found")
