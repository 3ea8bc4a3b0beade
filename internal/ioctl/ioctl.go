//go:build linux

// Package ioctl encodes Linux ioctl requests and issues them on device files.
package ioctl

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Mode is the IOCTL direction.
type Mode uint8

// Modes
const (
	None Mode = iota
	Write
	Read
)

// Command to be sent over ioctl.
type Command uintptr

func (c Command) Mode() Mode {
	return Mode(c >> 30 & 0x03)
}

func (c Command) Size() int {
	return int(c >> 16 & 0x3fff)
}

func (c Command) String() string {
	var (
		mode = c.Mode()
		cmd  = c & 0xffff
		str  string
	)
	if mode&Write > 0 {
		str += " write"
	}
	if mode&Read > 0 {
		str += " read"
	}
	return fmt.Sprintf("ioctl%s (%d bytes) 0x%04x", str, c.Size(), uintptr(cmd))
}

// Encode an ioctl command.
func Encode(mode Mode, size uint16, cmd uintptr) Command {
	return Command(mode)<<30 | Command(size)<<16 | Command(cmd)
}

// For encodes a command that transfers a value of type T.
func For[T any](mode Mode, cmd uintptr) Command {
	var v T
	return Encode(mode, uint16(unsafe.Sizeof(v)), cmd)
}

// Get reads a value of type T with a read command.
func Get[T any](fd uintptr, cmd uintptr) (T, error) {
	var v T
	err := Do(fd, For[T](Read, cmd), unsafe.Pointer(&v))
	return v, err
}

// Set writes v with a write command.
func Set[T any](fd uintptr, cmd uintptr, v T) error {
	return Do(fd, For[T](Write, cmd), unsafe.Pointer(&v))
}

// Do executes the ioctl call with arg pointing at the transferred value.
func Do(fd uintptr, command Command, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(command), uintptr(arg)); errno != 0 {
		return fmt.Errorf("%s failed: %w", command, errno)
	}
	return nil
}
