package utils

import (
	"time"

	"github.com/inkwell/sketchblog/config"
	"github.com/inkwell/sketchblog/services"
)

// StartViewRecordSweeper launches a background goroutine that periodically
// deletes view-dedup records older than the configured retention. The sweep
// only bounds table size; dedup correctness never depends on it.
func StartViewRecordSweeper(counter *services.ViewCounter, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			retention := time.Duration(config.Get().ViewRetentionDays) * 24 * time.Hour
			n, err := counter.SweepExpired(retention)
			if err != nil {
				if Sugar != nil {
					Sugar.Warnf("view record sweep failed: %v", err)
				}
				continue
			}
			if n > 0 && Sugar != nil {
				Sugar.Infof("view record sweep removed %d expired rows", n)
			}
		}
	}()
}
