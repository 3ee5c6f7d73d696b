// Package gofilterer turns untyped request parameters into filtered, sorted
// and paginated GORM queries.
//
// Overview
//
// A Config declares, once per resource, how parameters map to query
// conditions:
//   - WithParam registers a handler per parameter name. Blank values are
//     skipped and handlers run in parameter name order.
//   - WithSortOption declares sort keys. A key is an exact name or a Pattern
//     whose captures feed a Resolver. One option may be the default, one may be
//     a tiebreaker appended to every literal ordering.
//   - WithPerPage sets the page size and whether the per_page parameter may
//     override it (bounded by WithPerPageMax).
//
// Each request runs Config.Filter (or FilterWithoutPagination, Chain, Count)
// and gets back a Filterer holding the lazily evaluated query and its Meta.
// Requested pages beyond the last one are clamped, unknown sort keys fall back
// to the default option and then to "<table>.id".
//
// Pages computes the bounded page list shown by pagination controls, and
// Registry dispatches a query to the Config registered for its table.
package gofilterer
