package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abhinavmusrif/kinetic-os/internal/domain"
	"go.uber.org/zap"
)

// DreamCycle triggers the consolidator on a timer. The scheduling lives
// here, outside the consolidator itself, which only ever runs when called.
type DreamCycle struct {
	consolidator *Consolidator
	logger       *zap.Logger
	interval     time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup
}

func NewDreamCycle(consolidator *Consolidator, logger *zap.Logger, interval time.Duration) *DreamCycle {
	return &DreamCycle{
		consolidator: consolidator,
		logger:       logger,
		interval:     interval,
		stopCh:       make(chan struct{}),
	}
}

func (d *DreamCycle) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		d.logger.Info("dream cycle started", zap.Duration("interval", d.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				d.runOnce(ctx)
				cancel()
			case <-d.stopCh:
				d.logger.Info("dream cycle stopped")
				return
			}
		}
	}()
}

func (d *DreamCycle) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

func (d *DreamCycle) runOnce(ctx context.Context) {
	report, err := d.consolidator.Consolidate(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrConsolidationActive) {
			d.logger.Debug("dream cycle tick skipped, run already in flight")
			return
		}
		d.logger.Error("dream cycle run failed", zap.Error(err))
		return
	}
	d.logger.Info("dream cycle run complete",
		zap.Int64("new_watermark", report.NewWatermark),
		zap.Int("episodes_processed", report.EpisodesProcessed))
}
