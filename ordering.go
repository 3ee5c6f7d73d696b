package gofilterer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Direction defines the sort direction for the requested dataset.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

// ParseDirection maps a request value to a Direction. Only "desc" (in any
// case) selects DirectionDESC, everything else is ascending.
func ParseDirection(v any) Direction {
	return lo.Ternary(strings.EqualFold(strings.TrimSpace(stringOf(v)), "desc"), DirectionDESC, DirectionASC)
}

// SortKey identifies a sort option: either an exact name or a pattern that
// must match the whole sort value.
type SortKey struct {
	name    string
	pattern *regexp.Regexp
}

// Key returns an exact SortKey.
func Key(name string) SortKey {
	return SortKey{name: name}
}

// Pattern returns a SortKey matching sort values against expr. The expression
// is anchored on both ends. Pattern panics if expr does not compile.
func Pattern(expr string) SortKey {
	return SortKey{
		name:    expr,
		pattern: regexp.MustCompile(`^(?:` + expr + `)$`),
	}
}

func (k SortKey) IsPattern() bool {
	return k.pattern != nil
}

// String returns the exact name or the source expression of a pattern.
func (k SortKey) String() string {
	return k.name
}

// match tests sort against the key. For patterns the submatches are returned
// with the whole match at index 0.
func (k SortKey) match(sort string) ([]string, bool) {
	if k.pattern == nil {
		return nil, sort == k.name
	}

	captures := k.pattern.FindStringSubmatch(sort)

	return captures, captures != nil
}

// SortMatch is passed to a Resolver.
type SortMatch struct {
	// Sort is the sort value as requested.
	Sort string
	// Captures holds pattern submatches, whole match first. Empty for exact keys.
	Captures []string
	Direction Direction
}

// Resolver orders q for a matched sort option. Returning nil means the
// resolver has no ordering to offer and the default sort option is used.
type Resolver func(q *gorm.DB, m SortMatch) *gorm.DB

// OrderingSource is either a literal ORDER BY expression or a Resolver.
// The zero value means "not provided".
type OrderingSource struct {
	literal  string
	resolver Resolver
}

func Literal(expr string) OrderingSource {
	return OrderingSource{literal: expr}
}

func ResolveWith(fn Resolver) OrderingSource {
	return OrderingSource{resolver: fn}
}

func (s OrderingSource) IsZero() bool {
	return s.literal == "" && s.resolver == nil
}

func (s OrderingSource) IsResolver() bool {
	return s.resolver != nil
}

// SortFlag modifies a sort option.
type SortFlag uint8

const (
	// SortDefault marks the option used when no sort is requested or the
	// requested one is unknown. Only the first default is honored.
	SortDefault SortFlag = 1 << iota
	// SortTiebreaker marks a literal appended to every literal ordering.
	SortTiebreaker
	// SortNullsLast appends NULLS LAST to a literal ordering.
	SortNullsLast
)

func (f SortFlag) Has(flag SortFlag) bool {
	return f&flag == flag
}

type SortOption struct {
	Key      SortKey
	Ordering OrderingSource
	Flags    SortFlag
}

func newSortOption(key SortKey, source OrderingSource, flags SortFlag) (SortOption, error) {
	if source.IsZero() {
		if key.IsPattern() || key.name == "" {
			return SortOption{}, ErrMissingOrderingSource
		}
		source = Literal(key.name)
	}

	if key.IsPattern() && flags.Has(SortDefault) {
		return SortOption{}, ErrPatternDefault
	}

	if source.IsResolver() && flags.Has(SortTiebreaker) {
		return SortOption{}, ErrResolverTiebreaker
	}

	return SortOption{Key: key, Ordering: source, Flags: flags}, nil
}

// apply orders q according to the option. It returns nil when a resolver
// declined to order.
func (o SortOption) apply(q *gorm.DB, m SortMatch, tiebreaker string) *gorm.DB {
	if o.Ordering.IsResolver() {
		return o.Ordering.resolver(q, m)
	}

	return q.Order(literalOrdering(o.Ordering.literal, m.Direction, o.Flags.Has(SortNullsLast), tiebreaker))
}

type sortOptions []SortOption

func (s sortOptions) match(sort string) (SortOption, []string, bool) {
	if sort == "" {
		return SortOption{}, nil, false
	}

	for _, option := range s {
		if captures, ok := option.Key.match(sort); ok {
			return option, captures, true
		}
	}

	return SortOption{}, nil, false
}

func (s sortOptions) defaultOption() (SortOption, bool) {
	return lo.Find(s, func(option SortOption) bool {
		return option.Flags.Has(SortDefault)
	})
}

func (s sortOptions) tiebreaker() string {
	option, ok := lo.Find(s, func(option SortOption) bool {
		return option.Flags.Has(SortTiebreaker)
	})
	if !ok {
		return ""
	}

	return option.Ordering.literal
}

func (s sortOptions) exactKeys() []string {
	return lo.FilterMap(s, func(option SortOption, _ int) (string, bool) {
		return option.Key.name, !option.Key.IsPattern()
	})
}

// literalOrdering builds "<expr> <direction>[ NULLS LAST][, <tiebreaker>]".
func literalOrdering(expr string, direction Direction, nullsLast bool, tiebreaker string) string {
	ret := fmt.Sprintf("%s %s", expr, direction)
	if nullsLast {
		ret += " NULLS LAST"
	}

	if tiebreaker != "" {
		ret += ", " + tiebreaker
	}

	return ret
}
