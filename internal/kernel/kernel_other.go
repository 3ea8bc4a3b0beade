//go:build !(illumos && cgo)

package kernel

// KVM is unavailable on this platform.
type KVM struct{}

func OpenKVM() (*KVM, error) { return nil, ErrNotSupported }

func (k *KVM) Close() error { return ErrNotSupported }

func (k *KVM) Locate(string) (uintptr, error) { return 0, ErrNotSupported }

func (k *KVM) ReadAt([]byte, uintptr) error { return ErrNotSupported }

func (k *KVM) ReadUint16(uintptr) (uint16, error) { return 0, ErrNotSupported }

func (k *KVM) ReadUintptr(uintptr) (uintptr, error) { return 0, ErrNotSupported }

// CTF is unavailable on this platform.
type CTF struct{}

func OpenCTF(string) (*CTF, error) { return nil, ErrNotSupported }

func (c *CTF) Close() error { return ErrNotSupported }

func (c *CTF) OffsetOf(string, string) (uintptr, error) { return 0, ErrNotSupported }
