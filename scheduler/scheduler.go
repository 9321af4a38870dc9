// Package scheduler runs the periodic appliance ageing sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"boltnexus/utils"
)

const sweepTimeout = 5 * time.Minute

// Ager advances appliance service age; implemented by services.ApplianceService
type Ager interface {
	AgeAppliances(ctx context.Context, now time.Time) (int, error)
}

// Start schedules the ageing sweep on the given cron spec and starts the
// scheduler. The caller stops it on shutdown. Every API instance may start one;
// an appliance is aged at most once per month however many sweeps fire.
func Start(spec string, ager Ager) (*cron.Cron, error) {
	log := utils.GetLoggerWith(utils.LoggerNameScheduler)

	c := cron.New()
	if _, err := c.AddFunc(spec, func() { runSweep(ager, time.Now()) }); err != nil {
		return nil, fmt.Errorf("schedule appliance ageing %q: %w", spec, err)
	}
	c.Start()

	log.Info("Maintenance scheduler started", zap.String("schedule", spec))
	return c, nil
}

// Stop waits for a running sweep to finish
func Stop(c *cron.Cron) {
	if c == nil {
		return
	}
	<-c.Stop().Done()
	utils.GetLoggerWith(utils.LoggerNameScheduler).Info("Maintenance scheduler stopped")
}

func runSweep(ager Ager, now time.Time) {
	log := utils.GetLoggerWith(utils.LoggerNameScheduler)

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := ager.AgeAppliances(ctx, now)
	if err != nil {
		log.Error("Appliance ageing sweep failed", zap.Int("updated", n), zap.Error(err))
		return
	}
	log.Info("Appliance ageing sweep finished", zap.Int("updated", n))
}
