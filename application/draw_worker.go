package application

import (
	"context"
	"errors"
	"fmt"

	"lotterypool/domain/entities"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// PoolDrawer is the subset of LotteryHandler the worker drives
type PoolDrawer interface {
	PickWinner(ctx context.Context, poolID int64, caller entities.Address) (*entities.DrawResult, error)
}

// DrawWorker runs administrator draws for a fixed set of pools on a cron schedule
type DrawWorker struct {
	drawer        PoolDrawer
	schedule      string
	poolIDs       []int64
	administrator entities.Address
}

// NewDrawWorker creates a new draw worker
func NewDrawWorker(drawer PoolDrawer, schedule string, poolIDs []int64, administrator entities.Address) *DrawWorker {
	return &DrawWorker{
		drawer:        drawer,
		schedule:      schedule,
		poolIDs:       poolIDs,
		administrator: administrator,
	}
}

// Start schedules the draws and returns a function that stops the scheduler
func (w *DrawWorker) Start(ctx context.Context) (func(), error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(w.schedule, func() { w.RunOnce(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid draw schedule %q: %w", w.schedule, err)
	}
	c.Start()

	log.WithFields(log.Fields{
		"schedule": w.schedule,
		"pools":    w.poolIDs,
	}).Info("Draw worker started")

	return func() {
		<-c.Stop().Done()
		log.Info("Draw worker stopped")
	}, nil
}

// RunOnce draws every configured pool, each in its own transaction
func (w *DrawWorker) RunOnce(ctx context.Context) {
	var drawn, skipped, failed int

	for _, poolID := range w.poolIDs {
		if ctx.Err() != nil {
			return
		}

		result, err := w.drawer.PickWinner(ctx, poolID, w.administrator)
		switch {
		case errors.Is(err, entities.ErrNoParticipants):
			log.WithField("pool_id", poolID).Info("Pool has no participants, skipping draw")
			skipped++
		case err != nil:
			log.WithError(err).WithField("pool_id", poolID).Error("Scheduled draw failed")
			failed++
		default:
			log.WithFields(log.Fields{
				"pool_id": poolID,
				"winner":  result.Winner,
				"amount":  result.Amount.String(),
			}).Info("Scheduled draw completed")
			drawn++
		}
	}

	log.WithFields(log.Fields{
		"total_pools": len(w.poolIDs),
		"drawn":       drawn,
		"skipped":     skipped,
		"failed":      failed,
	}).Info("Completed scheduled draws")
}
