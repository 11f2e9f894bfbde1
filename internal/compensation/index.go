package compensation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Loader supplies the flat salary record set.
type Loader interface {
	Load(ctx context.Context) ([]Record, error)
}

// Index owns the current salary Table. The table is built lazily on first
// use and replaced whole on Reload, so readers always see a complete
// snapshot. Builds are serialized; concurrent first loads share one build.
type Index struct {
	loader  Loader
	logger  *logrus.Logger
	current atomic.Pointer[Table]
	buildMu sync.Mutex
}

func NewIndex(loader Loader, logger *logrus.Logger) *Index {
	return &Index{
		loader: loader,
		logger: logger,
	}
}

// Snapshot returns the current table, building it if none is loaded.
func (i *Index) Snapshot(ctx context.Context) (*Table, error) {
	if t := i.current.Load(); t != nil {
		return t, nil
	}

	i.buildMu.Lock()
	defer i.buildMu.Unlock()
	if t := i.current.Load(); t != nil {
		return t, nil
	}
	return i.build(ctx)
}

// Reload builds a fresh table and swaps it in. On failure the previous
// table stays in place.
func (i *Index) Reload(ctx context.Context) (*Table, error) {
	i.buildMu.Lock()
	defer i.buildMu.Unlock()
	return i.build(ctx)
}

// Invalidate drops the current table; the next Snapshot rebuilds it.
func (i *Index) Invalidate() {
	i.current.Store(nil)
	i.logger.WithField("component", "compensation_index").Info("Compensation index invalidated")
}

// Loaded reports whether a table is currently held.
func (i *Index) Loaded() bool {
	return i.current.Load() != nil
}

func (i *Index) build(ctx context.Context) (*Table, error) {
	start := time.Now()
	records, err := i.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load compensation records: %w", err)
	}
	table, err := NewTable(records)
	if err != nil {
		return nil, fmt.Errorf("failed to index compensation records: %w", err)
	}
	i.current.Store(table)

	i.logger.WithFields(logrus.Fields{
		"component": "compensation_index",
		"records":   table.Len(),
		"duration":  time.Since(start),
	}).Info("Compensation index built")
	return table, nil
}
