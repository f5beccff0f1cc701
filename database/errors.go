package database

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a point lookup matches nothing.
var ErrNotFound = errors.New("document not found")

// DefaultTimeout bounds a single repository call.
const DefaultTimeout = 5 * time.Second
