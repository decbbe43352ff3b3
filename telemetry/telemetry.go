// Package telemetry provides hierarchical timing collection for operations.
//
// Collectors travel through the context so instrumented code does not need
// extra parameters. When no collector is present a no-op one is returned.
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	ctx, timer := telemetry.Start(ctx, "build")
//	defer timer.End()
//
//	_, copyTimer := telemetry.Start(ctx, "copy public")
//	// ... work ...
//	copyTimer.End()
//
//	collector.Report(os.Stderr, output.NewStyles(os.Stderr))
package telemetry

import (
	"context"
	"io"

	"github.com/robinvdvleuten/margin/output"
)

type contextKey int

const (
	collectorKey contextKey = iota
	timerKey
)

// Collector collects timings.
type Collector interface {
	// Start begins timing an operation. End the returned timer when done.
	Start(name string) Timer

	// Report writes the collected timings. styles may be nil.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks a single operation's timing.
type Timer interface {
	End()

	// Child creates a nested timer under this timer.
	Child(name string) Timer
}

// WithCollector adds a collector to a context.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey, collector)
}

// FromContext extracts the collector from context, or a no-op collector.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}

// Start begins a timer nested under the timer already carried by ctx, or a
// top-level one from the context's collector. The returned context carries
// the new timer.
func Start(ctx context.Context, name string) (context.Context, Timer) {
	var timer Timer
	if parent, ok := ctx.Value(timerKey).(Timer); ok {
		timer = parent.Child(name)
	} else {
		timer = FromContext(ctx).Start(name)
	}
	return context.WithValue(ctx, timerKey, timer), timer
}
