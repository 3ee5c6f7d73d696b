package gofilterer

import (
	"slices"
)

const (
	// PageBreak marks an elided range of pages in a PageList.
	PageBreak = 0

	maxPageLinks = 11
)

// PageList is an ascending list of page numbers where PageBreak stands for a
// gap, e.g. [1 2 0 37 38 39 40 41 42 43 0 99 100].
type PageList []int

// Numbers returns the page numbers without breaks.
func (l PageList) Numbers() []int {
	return slices.DeleteFunc(slices.Clone(l), func(p int) bool { return p == PageBreak })
}

// Pages computes the page links for a pagination control. The list always
// holds the first two and last two pages and a window around current, with
// at most 11 page numbers in total.
func Pages(current, lastPage int) PageList {
	if lastPage <= 1 {
		return PageList{1}
	}
	current = min(max(current, 1), lastPage)

	pages := make([]int, 0, maxPageLinks)
	push := func(page int) {
		if page < 1 || page > lastPage || len(pages) >= maxPageLinks || slices.Contains(pages, page) {
			return
		}
		pages = append(pages, page)
	}

	push(1)
	push(2)
	push(lastPage)
	push(lastPage - 1)

	for offset := 0; len(pages) < maxPageLinks && (current-offset >= 1 || current+offset <= lastPage); offset++ {
		push(current - offset)
		push(current + offset)
	}

	slices.Sort(pages)

	ret := make(PageList, 0, len(pages)+2)
	for i, page := range pages {
		if i > 0 && page-pages[i-1] > 1 {
			ret = append(ret, PageBreak)
		}
		ret = append(ret, page)
	}

	return ret
}
