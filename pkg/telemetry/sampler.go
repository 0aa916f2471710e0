package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"chatsync/pkg/store"
)

var storeDiskBytes = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "chatsync_store_disk_bytes",
	Help: "Approximate on-disk size of the pebble store.",
})

// StartStoreSampler periodically samples the store's disk usage into a
// gauge until ctx is cancelled.
func StartStoreSampler(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			if store.Ready() {
				storeDiskBytes.Set(float64(store.DiskUsage()))
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
}
