package domain

import "errors"

// ErrNotFound is returned by repositories when a run, document, agent or
// artifact does not exist.
var ErrNotFound = errors.New("not found")
