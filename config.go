package gofilterer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ParamHandler narrows q for a single request parameter. Returning nil keeps
// q unchanged. Failures should be reported with q.AddError.
type ParamHandler func(q *gorm.DB, value any) *gorm.DB

// Config is the declaration of a filterer: paging settings, sort options,
// parameter handlers and hooks. Every With* method returns a new Config and
// leaves the receiver untouched, so a Config can be extended safely:
//
//	var base = gofilterer.NewConfig().
//		WithStartingQuery(func() *gorm.DB { return db.Model(&Person{}) }).
//		MustSortOption(gofilterer.Key("name"), gofilterer.Literal("people.name"), gofilterer.SortDefault)
//
//	var admin = base.WithPerPage(50, true)
type Config struct {
	perPage              int
	allowPerPageOverride bool
	perPageMax           int

	sortOptions sortOptions
	defaults    Params
	handlers    map[string]ParamHandler

	startingQuery  func() *gorm.DB
	defaultFilters func(*gorm.DB) *gorm.DB
	customMeta     func(*Filterer) map[string]any

	logger *zap.Logger
}

func NewConfig() *Config {
	return &Config{
		perPage:    DefaultPerPage,
		perPageMax: DefaultPerPageMax,
		logger:     zap.NewNop(),
	}
}

func (c *Config) clone() *Config {
	if c == nil {
		return NewConfig()
	}

	ret := *c
	ret.sortOptions = slices.Clone(c.sortOptions)
	ret.defaults = maps.Clone(c.defaults)
	ret.handlers = maps.Clone(c.handlers)

	return &ret
}

// WithPerPage sets the page size. When allowOverride is true the per_page
// parameter may change it, up to the per-page maximum.
func (c *Config) WithPerPage(perPage int, allowOverride bool) *Config {
	ret := c.clone()
	ret.perPage = lo.Ternary(perPage > 0, perPage, DefaultPerPage)
	ret.allowPerPageOverride = allowOverride

	return ret
}

// WithPerPageMax sets the upper bound for per_page overrides.
func (c *Config) WithPerPageMax(perPageMax int) *Config {
	ret := c.clone()
	ret.perPageMax = lo.Ternary(perPageMax > 0, perPageMax, DefaultPerPageMax)

	return ret
}

// WithSortOption declares a sort option. A zero source reuses an exact key as
// the literal expression. Options are matched in declaration order.
func (c *Config) WithSortOption(key SortKey, source OrderingSource, flags SortFlag) (*Config, error) {
	option, err := newSortOption(key, source, flags)
	if err != nil {
		return nil, fmt.Errorf("cannot declare sort option '%s': %w", key, err)
	}

	ret := c.clone()
	ret.sortOptions = append(ret.sortOptions, option)

	return ret, nil
}

// MustSortOption is like WithSortOption but panics on invalid declarations.
// Intended for package-level Config variables.
func (c *Config) MustSortOption(key SortKey, source OrderingSource, flags SortFlag) *Config {
	ret, err := c.WithSortOption(key, source, flags)
	if err != nil {
		panic(err)
	}

	return ret
}

// WithParam registers handler for the parameter name. Pagination-control
// parameters (page, per_page, sort, direction) never reach handlers.
func (c *Config) WithParam(name string, handler ParamHandler) *Config {
	ret := c.clone()
	if ret.handlers == nil {
		ret.handlers = make(map[string]ParamHandler)
	}
	ret.handlers[canonicalKey(name)] = handler

	return ret
}

// WithDefaults sets fallback parameter values. Request params win on conflict.
func (c *Config) WithDefaults(defaults Params) *Config {
	ret := c.clone()
	ret.defaults = defaults.canonical()

	return ret
}

// WithStartingQuery sets the function producing the base query of every
// request. It can be replaced per request with the WithQuery option.
func (c *Config) WithStartingQuery(fn func() *gorm.DB) *Config {
	ret := c.clone()
	ret.startingQuery = fn

	return ret
}

// WithDefaultFilters sets a hook applied to the starting query before any
// parameter handler. A nil result keeps the query unchanged.
func (c *Config) WithDefaultFilters(fn func(*gorm.DB) *gorm.DB) *Config {
	ret := c.clone()
	ret.defaultFilters = fn

	return ret
}

// WithCustomMeta sets a hook whose result is stored in Meta.Custom once the
// total and last page are known.
func (c *Config) WithCustomMeta(fn func(*Filterer) map[string]any) *Config {
	ret := c.clone()
	ret.customMeta = fn

	return ret
}

func (c *Config) WithLogger(logger *zap.Logger) *Config {
	ret := c.clone()
	if logger == nil {
		logger = zap.NewNop()
	}
	ret.logger = logger

	return ret
}

func (c *Config) PerPage() int {
	if c == nil {
		return DefaultPerPage
	}

	return c.perPage
}

func (c *Config) PerPageMax() int {
	if c == nil {
		return DefaultPerPageMax
	}

	return c.perPageMax
}

func (c *Config) AllowsPerPageOverride() bool {
	if c == nil {
		return false
	}

	return c.allowPerPageOverride
}

// SortOptions returns a copy of the declared sort options.
func (c *Config) SortOptions() []SortOption {
	if c == nil {
		return nil
	}

	return slices.Clone(c.sortOptions)
}
