// Package kernel reads symbols, memory and type information of the running
// illumos kernel through libkvm and libctf.
package kernel

import "errors"

// Errors
var (
	ErrNotSupported = errors.New("kernel: live kernel access requires illumos and cgo")
	ErrNotFound     = errors.New("kernel: not found")
)
