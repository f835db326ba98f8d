package orchestrator

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/joeycumines/go-wipecore/strategies"
)

// ProgressEvent is the structured progress stream; the (out-of-scope)
// TUI subscribes to these instead of scraping printed lines.
type ProgressEvent = strategies.Event

// ProgressFunc receives each event as it happens.
type ProgressFunc = strategies.ProgressFunc

// NewChannelSubscriber adapts the callback feed into a channel for
// consumers that prefer to drain events themselves. Events are dropped,
// not blocked on, when the consumer falls behind; progress reporting must
// never stall a write loop.
func NewChannelSubscriber(buffer int) (ProgressFunc, <-chan ProgressEvent) {
	ch := make(chan ProgressEvent, buffer)
	return func(ev ProgressEvent) {
		select {
		case ch <- ev:
		default:
		}
	}, ch
}

// progressMilestone is the printing granularity for progress lines.
const progressMilestone = 100 << 20

// LinePrinter renders events as human-readable lines: a start line per
// pass, per-100-MB progress, a success line with duration, and an
// explanatory paragraph on fallback.
func LinePrinter(w io.Writer) ProgressFunc {
	var (
		mu          sync.Mutex
		currentPass = -1
		passStart   time.Time
		lastBucket  int64
	)
	return func(ev ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()

		switch ev.Kind {
		case strategies.EventFallback:
			fmt.Fprintf(w, "\nHardware-assisted erase was not completed: %s.\n", ev.Description)
			fmt.Fprintf(w, "Falling back to a software multi-pass overwrite. The fallback is recorded\nfor the destruction certificate.\n\n")
			return
		case strategies.EventError:
			fmt.Fprintf(w, "error: %s\n", ev.Description)
			return
		case strategies.EventPassDone:
			fmt.Fprintf(w, "%s\n", ev.Description)
			return
		}

		if ev.PassIndex != currentPass {
			currentPass = ev.PassIndex
			passStart = time.Now()
			lastBucket = 0
			fmt.Fprintf(w, "pass %d/%d: %s\n", ev.PassIndex+1, ev.TotalPasses, ev.Description)
		}
		if bucket := ev.BytesDone / progressMilestone; bucket > lastBucket {
			lastBucket = bucket
			fmt.Fprintf(w, "  %d MB / %d MB\n", ev.BytesDone>>20, ev.TotalBytes>>20)
		}
		if ev.BytesDone >= ev.TotalBytes && ev.TotalBytes > 0 {
			fmt.Fprintf(w, "pass %d/%d complete in %s\n", ev.PassIndex+1, ev.TotalPasses, time.Since(passStart).Round(time.Millisecond))
		}
	}
}
