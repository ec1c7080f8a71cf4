//go:build unix

package dexstack

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Allocate reserves a guard-paged stack of at least size bytes: size
// rounded up to a full page, plus one trailing inaccessible guard page.
// Touching the guard page faults instead of silently corrupting whatever
// memory happens to sit beyond it.
func Allocate(size int) (*Stack, error) {
	page := unix.Getpagesize()
	size = roundUp(size, page)
	total := size + page

	mem, err := unix.Mmap(-1, 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("dexstack: mmap: %w", err)
	}
	if err := unix.Mprotect(mem[size:], unix.PROT_NONE); err != nil {
		_ = unix.Munmap(mem)
		return nil, fmt.Errorf("dexstack: mprotect guard page: %w", err)
	}
	return &Stack{mem: mem, size: size}, nil
}

// Release returns the stack's memory, guard page included, to the OS.
func (s *Stack) Release() error {
	if s.mem == nil {
		return nil
	}
	err := unix.Munmap(s.mem)
	s.mem = nil
	return err
}

func roundUp(n, multiple int) int {
	if multiple <= 0 {
		return n
	}
	if r := n % multiple; r != 0 {
		n += multiple - r
	}
	return n
}
