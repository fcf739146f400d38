//go:build !unix

package arena

// heapPageSource backs arena pages with plain heap slices. Used on
// platforms without an anonymous-mmap syscall (e.g. Windows); the bump
// allocator above it behaves identically, it simply loses the off-heap
// benefit mmapPageSource provides on unix.
type heapPageSource struct{}

func (heapPageSource) newPage(size int) []byte {
	return make([]byte, size)
}

func (heapPageSource) freePage([]byte) {
	// Left for the garbage collector.
}

var defaultPageSource pageSource = heapPageSource{}
