package mmap

import "errors"

// AccessPattern is a hint to the kernel about how a mapping is read.
type AccessPattern int

const (
	// AccessDefault gives no advice.
	AccessDefault AccessPattern = iota
	// AccessSequential suits tables parsed front to back.
	AccessSequential
	// AccessRandom suits matrices read cell by cell.
	AccessRandom
	// AccessWillNeed asks for read-ahead of the whole mapping.
	AccessWillNeed
)

var (
	// ErrClosed is returned when a closed mapping is read.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files whose size cannot be mapped.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
