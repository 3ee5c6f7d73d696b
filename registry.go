package gofilterer

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// Registry maps tables to their Config, so a query built for a model can be
// filtered without naming the Config at the call site:
//
//	reg.RegisterModel(db, &Person{}, personFilterer)
//	f, err := reg.Filter(ctx, db.Model(&Person{}).Where("active"), params)
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*Config
}

func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]*Config)}
}

// Register binds cfg to table.
func (r *Registry) Register(table string, cfg *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.configs == nil {
		r.configs = make(map[string]*Config)
	}
	r.configs[table] = cfg
}

// RegisterModel binds cfg to the table of model, named with db's naming
// strategy.
func (r *Registry) RegisterModel(db *gorm.DB, model any, cfg *Config) error {
	table := tableName(db.Model(model))
	if table == "" {
		return fmt.Errorf("cannot register filterer: unknown table for %T", model)
	}

	r.Register(table, cfg)

	return nil
}

// Lookup returns the Config registered for the table q reads from.
func (r *Registry) Lookup(q *gorm.DB) (*Config, error) {
	table := tableName(q)

	r.mu.RLock()
	cfg, ok := r.configs[table]
	r.mu.RUnlock()

	if !ok || cfg == nil {
		return nil, fmt.Errorf("%w: looked for a filterer of table '%s'", ErrFiltererNotFound, table)
	}

	return cfg, nil
}

// Filter filters, orders and paginates q with the Config of its table.
// q becomes the starting query.
func (r *Registry) Filter(ctx context.Context, q *gorm.DB, params Params, opts ...Option) (*Filterer, error) {
	cfg, err := r.configFor(q, opts)
	if err != nil {
		return nil, err
	}

	return cfg.Filter(ctx, params, append([]Option{WithQuery(q)}, opts...)...)
}

// Chain filters q with the Config of its table, without ordering or
// pagination.
func (r *Registry) Chain(ctx context.Context, q *gorm.DB, params Params, opts ...Option) (*gorm.DB, error) {
	cfg, err := r.configFor(q, opts)
	if err != nil {
		return nil, err
	}

	return cfg.Chain(ctx, params, append([]Option{WithQuery(q)}, opts...)...)
}

func (r *Registry) configFor(q *gorm.DB, opts []Option) (*Config, error) {
	if override := buildOptions(opts).config; override != nil {
		return override, nil
	}

	return r.Lookup(q)
}
