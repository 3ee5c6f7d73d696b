package gofilterer

import (
	"encoding/json"
	"fmt"
	"maps"

	"gorm.io/gorm"
)

// Meta describes the pagination state of a filtered query.
type Meta struct {
	// Page is the current page, clamped into [1, LastPage].
	Page int
	// PerPage is the effective page size.
	PerPage int
	// Total number of records matching the filters.
	Total int64
	// LastPage is never less than 1, even for an empty result.
	LastPage int
	// Custom holds the values returned by the Config's custom meta hook.
	Custom map[string]any
}

func (m Meta) HasPrev() bool {
	return m.Page > 1
}

func (m Meta) HasNext() bool {
	return m.Page < m.LastPage
}

// Offset returns the number of records preceding the current page.
func (m Meta) Offset() int {
	return (max(m.Page, 1) - 1) * m.PerPage
}

// MarshalJSON flattens Custom next to the pagination fields. Pagination
// fields take precedence over custom values with the same name.
func (m Meta) MarshalJSON() ([]byte, error) {
	ret := make(map[string]any, len(m.Custom)+4)
	maps.Copy(ret, m.Custom)
	ret["page"] = m.Page
	ret["per_page"] = m.PerPage
	ret["total"] = m.Total
	ret["last_page"] = m.LastPage

	return json.Marshal(ret)
}

// Page is a loaded page of records along with its pagination state.
type Page[T any] struct {
	Items     []T       `json:"items"`
	Meta      Meta      `json:"meta"`
	Sort      string    `json:"sort,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// Fetch loads the records of a filtered query into a Page.
func Fetch[T any](f *Filterer) (*Page[T], error) {
	if f == nil || f.results == nil {
		return nil, fmt.Errorf("cannot fetch page: filterer is nil")
	}

	items := make([]T, 0, f.meta.PerPage)
	err := f.results.Session(&gorm.Session{}).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("cannot fetch page: %w", err)
	}

	return &Page[T]{
		Items:     items,
		Meta:      f.meta,
		Sort:      f.sort,
		Direction: f.direction,
	}, nil
}
