//go:build unix

package arena

import (
	"golang.org/x/sys/unix"

	"github.com/gogpu/rendergraph/internal/diag"
)

// mmapPageSource backs arena pages with anonymous, private mmap regions.
// This keeps large per-frame allocations off the Go heap (no GC scanning of
// opaque command payloads) the same way the teacher's Vulkan allocator
// (hal/vulkan/memory) keeps GPU-bound memory off-heap.
type mmapPageSource struct{}

func (mmapPageSource) newPage(size int) []byte {
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		diag.Fatalf("arena: mmap %d bytes: %v", size, err)
	}
	return buf
}

func (mmapPageSource) freePage(buf []byte) {
	if buf == nil {
		return
	}
	if err := unix.Munmap(buf); err != nil {
		diag.Fatalf("arena: munmap: %v", err)
	}
}

var defaultPageSource pageSource = mmapPageSource{}
