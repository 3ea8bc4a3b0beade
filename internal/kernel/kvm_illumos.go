//go:build illumos && cgo

package kernel

/*
#cgo LDFLAGS: -lkvm
#include <stdlib.h>
#include <string.h>
#include <fcntl.h>
#include <kvm.h>
#include <nlist.h>
*/
import "C"

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// KVM is a read only handle on the live kernel.
type KVM struct {
	kd *C.kvm_t
}

// OpenKVM opens the running kernel.
func OpenKVM() (*KVM, error) {
	kd := C.kvm_open(nil, nil, nil, C.O_RDONLY, nil)
	if kd == nil {
		return nil, fmt.Errorf("kernel: could not access the kernel")
	}
	return &KVM{kd: kd}, nil
}

func (k *KVM) Close() error {
	if C.kvm_close(k.kd) != 0 {
		return fmt.Errorf("kernel: kvm_close failed")
	}
	return nil
}

// Locate returns the address of a kernel symbol.
func (k *KVM) Locate(symbol string) (uintptr, error) {
	name := C.CString(symbol)
	defer C.free(unsafe.Pointer(name))

	nl := (*[2]C.struct_nlist)(C.calloc(2, C.size_t(unsafe.Sizeof(C.struct_nlist{}))))
	defer C.free(unsafe.Pointer(nl))
	nl[0].n_name = name

	if C.kvm_nlist(k.kd, &nl[0]) != 0 {
		return 0, fmt.Errorf("kernel: nlist %s failed", symbol)
	}
	if nl[0].n_type == 0 {
		return 0, fmt.Errorf("kernel: symbol %s: %w", symbol, ErrNotFound)
	}
	return uintptr(nl[0].n_value), nil
}

// ReadAt reads len(p) bytes of kernel memory at addr.
func (k *KVM) ReadAt(p []byte, addr uintptr) error {
	if len(p) == 0 {
		return nil
	}
	buf := C.malloc(C.size_t(len(p)))
	defer C.free(buf)

	n, err := C.kvm_kread(k.kd, C.uintptr_t(addr), buf, C.size_t(len(p)))
	if n == -1 {
		return fmt.Errorf("kernel: could not read %#x: %w", addr, err)
	}
	if int(n) != len(p) {
		return fmt.Errorf("kernel: read %d bytes at %#x, wanted %d", n, addr, len(p))
	}
	copy(p, unsafe.Slice((*byte)(buf), len(p)))
	return nil
}

// ReadUint16 reads a native endian uint16 at addr.
func (k *KVM) ReadUint16(addr uintptr) (uint16, error) {
	var b [2]byte
	if err := k.ReadAt(b[:], addr); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint16(b[:]), nil
}

// ReadUintptr reads a native pointer sized word at addr.
func (k *KVM) ReadUintptr(addr uintptr) (uintptr, error) {
	var b [unsafe.Sizeof(uintptr(0))]byte
	if err := k.ReadAt(b[:], addr); err != nil {
		return 0, err
	}
	return uintptr(binary.NativeEndian.Uint64(b[:])), nil
}
