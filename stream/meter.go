package stream

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
)

// TickMeter counts marked items and logs their running rate every interval.
type TickMeter struct {
	name     string
	interval time.Duration
	started  time.Time
	ticker   *time.Ticker
	done     chan struct{}
	meter    metrics.Meter
}

func NewTickMeter(name string, interval time.Duration) *TickMeter {
	// Enable metrics package.
	// Won't work without this global setting.
	metrics.Enabled = true

	tm := &TickMeter{
		name:     name,
		interval: interval,
		started:  time.Now(),
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		meter:    metrics.NewMeter(),
	}
	go tm.run()
	return tm
}

func (tm *TickMeter) Mark(n int) {
	tm.meter.Mark(int64(n))
}

func (tm *TickMeter) Count() int64 {
	return tm.meter.Snapshot().Count()
}

func (tm *TickMeter) run() {
	for {
		select {
		case <-tm.ticker.C:
			tm.log()
		case <-tm.done:
			return
		}
	}
}

func (tm *TickMeter) log() {
	snap := tm.meter.Snapshot()
	slog.Info("Progress", "meter", tm.name,
		"n", humanize.Comma(snap.Count()),
		"rate", humanize.CommafWithDigits(snap.RateMean(), 0),
		"running", time.Since(tm.started).Round(time.Second))
}

// Stop logs a final line and stops the meter.
func (tm *TickMeter) Stop() {
	if tm == nil || tm.ticker == nil {
		return
	}
	tm.ticker.Stop()
	close(tm.done)
	tm.log()
	tm.meter.Stop()
}
