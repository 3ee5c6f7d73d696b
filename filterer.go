package gofilterer

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSortKey is reported by Filterer.Sort when no sort option applies and
// the ordering falls back to the table identifier.
const DefaultSortKey = "default"

type options struct {
	query          *gorm.DB
	config         *Config
	skipOrdering   bool
	skipPagination bool
	countOnly      bool
}

// Option alters a single filtering request.
type Option func(*options)

// WithQuery replaces the Config's starting query for this request.
func WithQuery(q *gorm.DB) Option {
	return func(o *options) { o.query = q }
}

func WithoutOrdering() Option {
	return func(o *options) { o.skipOrdering = true }
}

// WithOrdering re-enables ordering, e.g. for Chain.
func WithOrdering() Option {
	return func(o *options) { o.skipOrdering = false }
}

func WithoutPagination() Option {
	return func(o *options) { o.skipPagination = true }
}

// OnlyCount filters and counts, skipping ordering and pagination.
func OnlyCount() Option {
	return func(o *options) { o.countOnly = true }
}

// ForConfig makes a Registry use cfg instead of looking one up.
func ForConfig(cfg *Config) Option {
	return func(o *options) { o.config = cfg }
}

func buildOptions(opts []Option) options {
	var ret options
	for _, opt := range opts {
		if opt != nil {
			opt(&ret)
		}
	}

	return ret
}

// Filterer is the outcome of one filtering request: the query narrowed by the
// request params together with its pagination metadata.
type Filterer struct {
	cfg    *Config
	params Params
	opts   options
	logger *zap.Logger

	results   *gorm.DB
	sort      string
	direction Direction
	meta      Meta
}

// New runs the filtering pipeline for params. ctx is bound to the resulting
// query. Errors reported by handlers through AddError and database errors
// from counting are returned.
func (c *Config) New(ctx context.Context, params Params, opts ...Option) (*Filterer, error) {
	if c == nil {
		c = NewConfig()
	}

	f := &Filterer{
		cfg:       c,
		params:    mergeParams(c.defaults, params),
		opts:      buildOptions(opts),
		logger:    c.logger,
		direction: DirectionASC,
	}

	err := f.findResults(ctx)
	if err != nil {
		return nil, err
	}

	return f, nil
}

// Filter filters, orders and paginates.
func (c *Config) Filter(ctx context.Context, params Params, opts ...Option) (*Filterer, error) {
	return c.New(ctx, params, opts...)
}

// FilterWithoutPagination filters and orders without LIMIT/OFFSET.
func (c *Config) FilterWithoutPagination(ctx context.Context, params Params, opts ...Option) (*Filterer, error) {
	return c.New(ctx, params, append(slices.Clip(opts), WithoutPagination())...)
}

// Chain returns the filtered query without ordering or pagination so the
// caller can keep composing it. Pass WithOrdering to keep the sort.
func (c *Config) Chain(ctx context.Context, params Params, opts ...Option) (*gorm.DB, error) {
	f, err := c.New(ctx, params, append([]Option{WithoutOrdering(), WithoutPagination()}, opts...)...)
	if err != nil {
		return nil, err
	}

	return f.results, nil
}

// Count returns the number of records matching params.
func (c *Config) Count(ctx context.Context, params Params, opts ...Option) (int64, error) {
	f, err := c.New(ctx, params, append(slices.Clip(opts), OnlyCount())...)
	if err != nil {
		return 0, err
	}

	return f.meta.Total, nil
}

func (f *Filterer) findResults(ctx context.Context) error {
	f.meta = Meta{Page: 1, PerPage: f.perPage(), LastPage: 1}

	q, err := f.startingQuery()
	if err != nil {
		return err
	}
	f.results = q.WithContext(ctx)

	if f.cfg.defaultFilters != nil {
		f.results = lo.CoalesceOrEmpty(f.cfg.defaultFilters(f.results), f.results)
	}

	f.applyParams()

	if !f.opts.skipOrdering && !f.opts.countOnly {
		f.applyOrdering()
	}

	switch {
	case f.opts.countOnly:
		err = f.count()
	case !f.opts.skipPagination:
		err = f.paginate()
	}
	if err != nil {
		return err
	}

	if f.results.Error != nil {
		return fmt.Errorf("cannot filter: %w", f.results.Error)
	}

	return nil
}

func (f *Filterer) startingQuery() (*gorm.DB, error) {
	if f.opts.query != nil {
		return f.opts.query, nil
	}

	if f.cfg.startingQuery != nil {
		if q := f.cfg.startingQuery(); q != nil {
			return q, nil
		}
	}

	return nil, ErrMissingStartingQuery
}

// applyParams calls the registered handler of every present param, in key
// order.
func (f *Filterer) applyParams() {
	keys := lo.Keys(f.params)
	slices.Sort(keys)

	for _, key := range keys {
		value := f.params[key]
		if isControlParam(key) || isBlank(value) {
			continue
		}

		handler, ok := f.cfg.handlers[key]
		if !ok || handler == nil {
			continue
		}

		f.results = lo.CoalesceOrEmpty(handler(f.results, value), f.results)
	}
}

func (f *Filterer) applyOrdering() {
	f.direction = ParseDirection(f.params[ParamDirection])
	requested := stringOf(f.params[ParamSort])
	tiebreaker := f.cfg.sortOptions.tiebreaker()

	option, captures, ok := f.cfg.sortOptions.match(requested)
	if ok {
		f.sort = requested
	} else {
		if requested != "" {
			f.logger.Debug("unmatched sort key, using default",
				zap.String("sort", requested),
				zap.String("closest", closestKey(requested, f.cfg.sortOptions.exactKeys())),
			)
		}

		option, ok = f.cfg.sortOptions.defaultOption()
		if !ok {
			f.sort = DefaultSortKey
			f.results = f.results.Order(literalOrdering(f.identifierColumn(), f.direction, false, tiebreaker))
			return
		}
		f.sort = option.Key.name
	}

	match := SortMatch{Sort: f.sort, Captures: captures, Direction: f.direction}
	if ordered := option.apply(f.results, match, tiebreaker); ordered != nil {
		f.results = ordered
		return
	}

	// The resolver declined; fall back to the default option once.
	def, ok := f.cfg.sortOptions.defaultOption()
	if ok && def.Key != option.Key {
		f.logger.Debug("sort resolver returned no ordering, using default",
			zap.String("sort", f.sort),
			zap.String("default", def.Key.name),
		)
		f.sort = def.Key.name
		if ordered := def.apply(f.results, SortMatch{Sort: f.sort, Direction: f.direction}, tiebreaker); ordered != nil {
			f.results = ordered
			return
		}
	}

	f.sort = DefaultSortKey
	f.results = f.results.Order(literalOrdering(f.identifierColumn(), f.direction, false, tiebreaker))
}

// identifierColumn returns "<table>.id", or plain "id" when the table can't
// be determined from the query.
func (f *Filterer) identifierColumn() string {
	table := tableName(f.results)
	if table == "" {
		f.logger.Debug("cannot resolve table name, ordering by bare id")
		return "id"
	}

	return table + ".id"
}

func (f *Filterer) perPage() int {
	if !f.cfg.allowPerPageOverride || !f.params.Present(ParamPerPage) {
		return f.cfg.perPage
	}

	perPage, strict := IsNormalizedPerPage(f.params.Int(ParamPerPage), f.cfg.perPage, f.cfg.perPageMax)
	if !strict {
		f.logger.Debug("per_page adjusted",
			zap.String("requested", f.params.String(ParamPerPage)),
			zap.Int("per_page", perPage),
		)
	}

	return perPage
}

func (f *Filterer) count() error {
	var total int64

	// Count on a separate session so the statement of results stays intact.
	err := f.results.Session(&gorm.Session{}).Count(&total).Error
	if err != nil {
		return fmt.Errorf("cannot count filtered results: %w", err)
	}

	f.meta.Total = total
	f.meta.LastPage = lastPageOf(total, f.meta.PerPage)

	return nil
}

func (f *Filterer) paginate() error {
	err := f.count()
	if err != nil {
		return err
	}

	page := max(f.params.Int(ParamPage), 1)
	if page > f.meta.LastPage {
		f.logger.Debug("requested page out of range, clamping",
			zap.Int("page", page),
			zap.Int("last_page", f.meta.LastPage),
		)
		page = f.meta.LastPage
	}
	f.meta.Page = page

	if f.cfg.customMeta != nil {
		f.meta.Custom = f.cfg.customMeta(f)
	}

	f.results = f.results.Limit(f.meta.PerPage).Offset(f.meta.Offset())

	return nil
}

// Results returns the filtered query. It is lazily evaluated.
func (f *Filterer) Results() *gorm.DB {
	if f == nil {
		return nil
	}

	return f.results
}

func (f *Filterer) Meta() Meta {
	if f == nil {
		return Meta{Page: 1, LastPage: 1}
	}

	return f.meta
}

// Sort returns the sort key in effect: the requested value when it matched an
// option, the default option's key, or DefaultSortKey.
func (f *Filterer) Sort() string {
	if f == nil {
		return ""
	}

	return f.sort
}

func (f *Filterer) Direction() Direction {
	if f == nil {
		return DirectionASC
	}

	return f.direction
}

// Params returns the merged request params. The map must not be modified.
func (f *Filterer) Params() Params {
	if f == nil {
		return nil
	}

	return f.params
}

// Pages returns the page list for rendering pagination controls.
func (f *Filterer) Pages() PageList {
	meta := f.Meta()
	return Pages(meta.Page, meta.LastPage)
}
