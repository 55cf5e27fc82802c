package catalog

import (
	"errors"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Holder publishes the catalog in use. Readers always see a complete catalog.
type Holder struct {
	current atomic.Pointer[Catalog]
}

func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.current.Store(c)
	return h
}

func (h *Holder) Load() *Catalog {
	return h.current.Load()
}

func (h *Holder) Store(c *Catalog) {
	h.current.Store(c)
}

// Reloader re-reads the catalog source on a cron schedule.
type Reloader struct {
	holder *Holder
	path   string
	adjust func(*Catalog) *Catalog
	cron   *cron.Cron
	log    *zap.Logger
}

func NewReloader(holder *Holder, path string, adjust func(*Catalog) *Catalog, log *zap.Logger) *Reloader {
	if adjust == nil {
		adjust = func(c *Catalog) *Catalog { return c }
	}
	return &Reloader{
		holder: holder,
		path:   path,
		adjust: adjust,
		cron:   cron.New(),
		log:    log,
	}
}

// Reload swaps in the freshly read catalog. A source that fails outright
// leaves the current catalog in place.
func (r *Reloader) Reload() error {
	c, err := Load(r.path)
	if c == nil {
		r.log.Error("Catalog reload failed, keeping current catalog", zap.String("path", r.path), zap.Error(err))
		return &ConfigError{Source: r.path, Err: err}
	}
	if err != nil {
		r.log.Warn("Catalog reloaded with substitutions", zap.String("path", r.path), zap.Error(err))
	}
	r.holder.Store(r.adjust(c))
	r.log.Info("Catalog reloaded", zap.String("path", r.path))
	if err != nil {
		return &ConfigError{Source: r.path, Err: err}
	}
	return nil
}

// Start schedules Reload. An empty schedule disables reloading.
func (r *Reloader) Start(schedule string) error {
	if schedule == "" {
		return nil
	}
	if r.path == "" {
		return errors.New("catalog reload needs a source path")
	}
	if _, err := r.cron.AddFunc(schedule, func() { _ = r.Reload() }); err != nil {
		return err
	}
	r.cron.Start()
	r.log.Info("Catalog reloader started", zap.String("schedule", schedule))
	return nil
}

func (r *Reloader) Stop() {
	<-r.cron.Stop().Done()
}
