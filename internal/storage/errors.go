package storage

import "errors"

var (
	// ErrKeyNotFound is returned when a key does not exist in the store
	ErrKeyNotFound = errors.New("key not found")

	// ErrStoreClosed is returned when operating on a closed store
	ErrStoreClosed = errors.New("store is closed")
)
