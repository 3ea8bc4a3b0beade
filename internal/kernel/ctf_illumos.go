//go:build illumos && cgo

package kernel

/*
#cgo LDFLAGS: -lctf
#include <stdlib.h>
#include <libctf.h>
*/
import "C"

import (
	"fmt"
	"os"
	"unsafe"
)

// CTF is the compact type information of a kernel object, for example
// /system/object/gfx_private/object.
type CTF struct {
	f  *os.File
	fp *C.ctf_file_t
}

// OpenCTF reads the CTF section of an object file.
func OpenCTF(path string) (*CTF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var cerr C.int
	fp := C.ctf_fdopen(C.int(f.Fd()), &cerr)
	if fp == nil {
		_ = f.Close()
		return nil, fmt.Errorf("kernel: could not read CTF from %s: %s", path, C.GoString(C.ctf_errmsg(cerr)))
	}
	return &CTF{f: f, fp: fp}, nil
}

func (c *CTF) Close() error {
	C.ctf_close(c.fp)
	return c.f.Close()
}

// OffsetOf returns the byte offset of member in the named type, such as
// "struct fb_info".
func (c *CTF) OffsetOf(typeName, member string) (uintptr, error) {
	tname := C.CString(typeName)
	defer C.free(unsafe.Pointer(tname))
	mname := C.CString(member)
	defer C.free(unsafe.Pointer(mname))

	id := C.ctf_lookup_by_name(c.fp, tname)
	if id == C.CTF_ERR {
		return 0, fmt.Errorf("kernel: type %q: %w", typeName, ErrNotFound)
	}
	id = C.ctf_type_resolve(c.fp, id)

	var info C.ctf_membinfo_t
	if C.ctf_member_info(c.fp, id, mname, &info) == C.CTF_ERR {
		return 0, fmt.Errorf("kernel: member %q of %s: %w", member, typeName, ErrNotFound)
	}
	if info.ctm_offset%8 != 0 {
		return 0, fmt.Errorf("kernel: offset of %q is %d bits, not byte aligned", member, info.ctm_offset)
	}
	return uintptr(info.ctm_offset / 8), nil
}
