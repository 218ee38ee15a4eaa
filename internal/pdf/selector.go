package pdf

// DefaultSkipPages is the number of leading pages (cover and index) left out of both passes.
const DefaultSkipPages = 2

// SelectPages returns the zero-based page indices skip..total-1. The same
// slice must drive the text and the image pass.
func SelectPages(total, skip int) []int {
	if skip < 0 {
		skip = 0
	}
	if total <= skip {
		return []int{}
	}

	pages := make([]int, 0, total-skip)
	for i := skip; i < total; i++ {
		pages = append(pages, i)
	}
	return pages
}
