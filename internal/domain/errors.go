package domain

import "errors"

// ErrNotFound is returned by stores when a bookmark id is unknown.
var ErrNotFound = errors.New("bookmark not found")
