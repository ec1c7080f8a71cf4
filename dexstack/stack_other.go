//go:build !unix

package dexstack

// Allocate reserves a plain heap-backed stack of size bytes. Non-unix
// platforms have no mmap/mprotect exposed via golang.org/x/sys/unix, so
// there is no guard page here; overflow protection, such as it is, comes
// from Go's own goroutine stack growth, since the real execution never
// touches this region regardless of platform.
func Allocate(size int) (*Stack, error) {
	return &Stack{mem: make([]byte, size), size: size}, nil
}

// Release drops the reference to the backing slice.
func (s *Stack) Release() error {
	s.mem = nil
	return nil
}
