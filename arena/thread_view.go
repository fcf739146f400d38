package arena

import (
	"github.com/gogpu/rendergraph/internal/diag"
)

// ThreadView is a sub-arena that bump-allocates from a thread-private page
// list. It must not be shared across goroutines; acquire one ThreadView per
// recording goroutine via Pool.ThreadView.
type ThreadView struct {
	pool    *Pool
	tag     Tag
	current *page
}

func isPowerOfTwo(align int) bool {
	return align > 0 && align&(align-1) == 0
}

func alignUp(offset, align int) int {
	return (offset + align - 1) &^ (align - 1)
}

// Allocate returns size bytes aligned to align (a power of two), bump-
// allocated from the current page. It never fails short of OOM: if the
// current page lacks room, a new page is acquired from the pool (taking the
// pool's page-acquisition lock), including an oversized dedicated page when
// size exceeds the pool's page size.
func (v *ThreadView) Allocate(size, align int) []byte {
	if size < 0 {
		diag.Fatalf("arena: negative allocation size %d", size)
	}
	if !isPowerOfTwo(align) {
		diag.Fatalf("arena: alignment %d is not a power of two", align)
	}
	if size == 0 {
		return nil
	}

	if v.current != nil {
		start := alignUp(v.current.used, align)
		if end := start + size; end <= len(v.current.buf) {
			// Alignment padding counts as used, so the total matches the
			// page.used values Pool.Free subtracts.
			v.pool.usedB.Add(uint64(end - v.current.used))
			v.current.used = end
			v.pool.allocCnt.Add(1)
			return v.current.buf[start:end]
		}
	}

	// Current page exhausted (or none yet) - take a new one. This is the
	// only path that touches the pool's mutex.
	v.pool.mu.Lock()
	pg := v.pool.acquirePage(v.tag, size+align)
	v.pool.mu.Unlock()

	start := alignUp(pg.used, align)
	end := start + size
	pg.used = end
	v.current = pg
	v.pool.usedB.Add(uint64(end - start))
	v.pool.allocCnt.Add(1)
	return pg.buf[start:end]
}

// CopyBytes copies src into a fresh allocation and returns the copy. Used
// for setBytes-style commands (spec.md §4.4).
func (v *ThreadView) CopyBytes(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	dst := v.Allocate(len(src), 1)
	copy(dst, src)
	return dst
}

// Tag returns the tag this view allocates under.
func (v *ThreadView) Tag() Tag { return v.tag }
