package arena

// DefaultPageSize is the size of a single page drawn from the global page
// pool (spec.md §4.1: "pages of a fixed size (e.g. 2 MiB)").
const DefaultPageSize = 2 << 20

// pageSource supplies and reclaims the raw backing storage for pages. It is
// swapped per-OS (see pages_unix.go / pages_other.go) so that the bump
// allocator's fast path never has to know whether a page came from an
// anonymous mmap or a plain heap slice.
type pageSource interface {
	newPage(size int) []byte
	freePage(buf []byte)
}
