// Package arena implements the tagged bump allocator from spec.md §4.1:
// fast, lock-free-on-the-fast-path allocation scoped to a Tag, with the
// entire tag released in one call. No destructors run on free - only
// POD-like command payloads are meant to live here (see recorder.Command);
// anything that needs a destructor belongs in a pass recorder's keep-alive
// list (recorder.Recorder.KeepAlive) instead.
package arena

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/rendergraph/internal/diag"
)

// Stats reports page/byte pressure for a Pool, mirroring the
// pool/block/stats shape hal/vulkan/memory/allocator.go uses for GPU heap
// pressure - useful for the same reason: sizing the next frame's arena
// budget from the last frame's high-water mark.
type Stats struct {
	PageCount       int
	TotalBytes      uint64
	UsedBytes       uint64
	AllocationCount uint64
}

type page struct {
	buf  []byte
	used int
}

// Pool owns every page currently checked out under any Tag, plus the global
// free page-size. Page acquisition is guarded by a mutex (spec.md §4.1: "the
// page pool uses an internal lock on page acquisition"); a ThreadView's bump
// pointer advances on its current page without touching this lock.
type Pool struct {
	mu       sync.Mutex
	source   pageSource
	pageSize int
	pages    map[Tag][]*page
	freed    map[Tag]bool
	pageCnt  int
	totalB   uint64

	// usedB and allocCnt are updated from ThreadView.Allocate without
	// holding mu, so that the bump-allocation fast path never contends
	// with page acquisition on another thread.
	usedB    atomic.Uint64
	allocCnt atomic.Uint64
}

// NewPool creates a page pool using the default OS-appropriate page source
// and DefaultPageSize.
func NewPool() *Pool {
	return NewPoolWithSource(defaultPageSource, DefaultPageSize)
}

// NewPoolWithSource is exposed for tests that want a deterministic,
// non-mmap page source.
func NewPoolWithSource(source pageSource, pageSize int) *Pool {
	if pageSize <= 0 {
		diag.Fatalf("arena: page size must be positive, got %d", pageSize)
	}
	return &Pool{
		source:   source,
		pageSize: pageSize,
		pages:    make(map[Tag][]*page),
		freed:    make(map[Tag]bool),
	}
}

// acquirePage returns a fresh page of at least minSize bytes, tracked under
// tag. Must be called with mu held.
func (p *Pool) acquirePage(tag Tag, minSize int) *page {
	size := p.pageSize
	if minSize > size {
		size = minSize
	}
	buf := p.source.newPage(size)
	pg := &page{buf: buf}
	p.pages[tag] = append(p.pages[tag], pg)
	p.pageCnt++
	p.totalB += uint64(size)
	return pg
}

// Free releases every page allocated under tag. Pointers previously
// returned under tag become invalid. Freeing a tag that was never used, or
// freeing it twice, is a fatal programming error (spec.md §4.1).
func (p *Pool) Free(tag Tag) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.freed[tag] {
		diag.Fatalf("arena: double free of tag %s", tag)
	}

	pages, ok := p.pages[tag]
	if !ok {
		diag.Fatalf("arena: free of tag %s that was never allocated", tag)
	}

	for _, pg := range pages {
		p.totalB -= uint64(len(pg.buf))
		p.usedB.Add(-uint64(pg.used))
		p.pageCnt--
		p.source.freePage(pg.buf)
	}
	delete(p.pages, tag)
	p.freed[tag] = true
}

// Stats returns a snapshot of current page/byte pressure across all
// outstanding tags.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		PageCount:       p.pageCnt,
		TotalBytes:      p.totalB,
		UsedBytes:       p.usedB.Load(),
		AllocationCount: p.allocCnt.Load(),
	}
}

// ThreadView returns a sub-arena that allocates from a thread-private page
// list under tag. Multiple ThreadViews for the same tag may be created (one
// per recording goroutine); they never share a current page, so the bump
// path between them needs no cross-thread synchronisation - only
// acquirePage touches the pool's mutex.
func (p *Pool) ThreadView(tag Tag) *ThreadView {
	p.mu.Lock()
	if p.freed[tag] {
		p.mu.Unlock()
		diag.Fatalf("arena: ThreadView requested for already-freed tag %s", tag)
	}
	if _, ok := p.pages[tag]; !ok {
		p.pages[tag] = nil
	}
	p.mu.Unlock()
	return &ThreadView{pool: p, tag: tag}
}
