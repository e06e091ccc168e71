package grepkit

import "errors"

var (
	// ErrEmptyPattern is returned by front ends that require a pattern.
	ErrEmptyPattern = errors.New("pattern cannot be empty")
	// ErrInvalidPattern wraps regular expression compile failures.
	ErrInvalidPattern = errors.New("regex error")
	// ErrInvalidGlob wraps glob syntax errors.
	ErrInvalidGlob = errors.New("invalid glob pattern")
	// ErrPathNotFound is returned when the search root does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotDirectory is returned when an operation needs a directory root.
	ErrNotDirectory = errors.New("path must be a directory")
	// ErrUnknownEncoding is returned for encoding names not in SupportedEncodings.
	ErrUnknownEncoding = errors.New("unknown encoding")
)
