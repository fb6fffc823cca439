package storage

import "errors"

var (
	ErrRecordNotFound = errors.New("history record not found")
	ErrInvalidData    = errors.New("invalid data")
	ErrStorageInit    = errors.New("storage initialization failed")
	ErrFileOperation  = errors.New("file operation failed")
)
