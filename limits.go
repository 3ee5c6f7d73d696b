package gofilterer

const (
	DefaultPerPage    = 20
	DefaultPerPageMax = 1000
)

// IsNormalizedPerPage clamps a requested page size. Non-positive values fall
// back to fallback, values above maxPerPage are cut to maxPerPage. The second
// return value is false when the request had to be adjusted.
func IsNormalizedPerPage(perPage, fallback, maxPerPage int) (int, bool) {
	if perPage <= 0 {
		return fallback, false
	} else if perPage > maxPerPage {
		return maxPerPage, false
	}

	return perPage, true
}

func NormalizePerPage(perPage, fallback, maxPerPage int) int {
	ret, _ := IsNormalizedPerPage(perPage, fallback, maxPerPage)
	return ret
}

// lastPageOf returns the number of pages needed for total records, never
// less than one.
func lastPageOf(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}

	return int((total + int64(perPage) - 1) / int64(perPage))
}
