package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/hoops-valuation/internal/compensation"
)

// IndexRefresher reloads the compensation index on a cron schedule.
type IndexRefresher struct {
	index     *compensation.Index
	schedule  string
	timeout   time.Duration
	logger    *logrus.Logger
	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

func NewIndexRefresher(index *compensation.Index, schedule string, timeout time.Duration, logger *logrus.Logger) *IndexRefresher {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &IndexRefresher{
		index:    index,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start schedules periodic reloads. An empty schedule disables refreshing.
func (r *IndexRefresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return fmt.Errorf("index refresher is already running")
	}
	if r.schedule == "" {
		r.logger.WithField("component", "index_refresher").Info("Compensation refresh disabled")
		return nil
	}

	if _, err := r.cron.AddFunc(r.schedule, r.Refresh); err != nil {
		return fmt.Errorf("failed to schedule compensation refresh: %w", err)
	}

	r.cron.Start()
	r.isRunning = true

	r.logger.WithFields(logrus.Fields{
		"component": "index_refresher",
		"schedule":  r.schedule,
	}).Info("Index refresher started")
	return nil
}

// Stop halts scheduling and waits for a running reload to finish.
func (r *IndexRefresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return
	}

	ctx := r.cron.Stop()
	<-ctx.Done()

	r.isRunning = false
	r.logger.WithField("component", "index_refresher").Info("Index refresher stopped")
}

// Refresh reloads the index once. Failures keep the previous table.
func (r *IndexRefresher) Refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	table, err := r.index.Reload(ctx)
	if err != nil {
		r.logger.WithField("component", "index_refresher").WithError(err).Error("Scheduled compensation reload failed")
		return
	}
	r.logger.WithFields(logrus.Fields{
		"component": "index_refresher",
		"records":   table.Len(),
	}).Info("Scheduled compensation reload completed")
}
