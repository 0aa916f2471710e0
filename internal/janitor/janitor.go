package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"

	"chatsync/pkg/logger"
	"chatsync/pkg/typing"
)

// The janitor sweeps expired typing signals so abandoned rows (crashed
// tabs, dropped connections) do not accumulate. Sweeping is hygiene only;
// readers already filter by freshness, so a late sweep is never visible.

const defaultCron = "*/5 * * * *"

// RunImmediate triggers a single sweep, for tests and admin triggers.
func RunImmediate() (int, error) {
	return typing.SweepExpired()
}

// Start launches the sweep scheduler. Returns a cancel func; callers must
// invoke it on shutdown.
func Start(ctx context.Context, cronExpr string) (context.CancelFunc, error) {
	if cronExpr == "" {
		cronExpr = defaultCron
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid janitor cron expression: %s", cronExpr)
	}

	logger.Log.Info("janitor_enabled", zap.String("cron", cronExpr))
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr)
	return cancel, nil
}

// runScheduler computes the next tick with gronx and sleeps until then,
// which keeps full cron syntax available and avoids a polling loop.
func runScheduler(ctx context.Context, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("janitor_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Log.Error("janitor_nexttick_failed", zap.String("cron", cronExpr), zap.Error(err))
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			sweep()
			// avoid a tight loop when the tick is already due
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(wait):
			sweep()
		case <-ctx.Done():
			logger.Log.Info("janitor_stopping")
			return
		}
	}
}

func sweep() {
	n, err := typing.SweepExpired()
	if err != nil {
		logger.Log.Error("janitor_sweep_failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Log.Info("janitor_sweep_done", zap.Int("deleted", n))
	}
}
