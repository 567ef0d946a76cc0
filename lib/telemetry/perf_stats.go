package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("go.perf_stats")
var cpuGauge, _ = meter.Float64Gauge("cpu_usage")
var memoryGauge, _ = meter.Int64Gauge("allocated_mb")
var goroutineGauge, _ = meter.Int64Gauge("goroutine_count")
var fetchGauge, _ = meter.Int64Gauge("fetches_in_flight")

var fetchesInFlight atomic.Int64

// FetchStarted and FetchFinished bracket one page fetch. the batch
// loop is sequential so the gauge reads 0 or 1; a stuck browser render
// shows up as a 1 that never drops.
func FetchStarted() {
	fetchesInFlight.Add(1)
}

func FetchFinished() {
	fetchesInFlight.Add(-1)
}

func InstrumentPerfStats(ctx context.Context) {
	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(time.Second * 30)

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				// interval 0 compares against the previous sample
				// instead of blocking the loop
				cpuUsage, err := cpu.Percent(0, false)
				if err == nil && len(cpuUsage) > 0 {
					cpuGauge.Record(ctx, cpuUsage[0])
				} else if err != nil {
					slog.WarnContext(ctx, "failed to read cpu usage", "err", err)
				}

				memoryGauge.Record(ctx, int64(memStats.Alloc/1_000_000))
				goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
				fetchGauge.Record(ctx, fetchesInFlight.Load())
			case <-ctx.Done():
				return
			}
		}
	}()
}
