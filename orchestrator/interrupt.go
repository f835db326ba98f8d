package orchestrator

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/go-wipecore/ioengine"
)

// InterruptFlag is the process-wide cancellation channel: a SIGINT
// handler sets it, and every long loop polls it between buffers. Writes
// in flight complete; the next buffer acquisition observes the flag and
// short-circuits.
type InterruptFlag struct {
	flag        atomic.Bool
	installOnce sync.Once
	ch          chan os.Signal
}

// NewInterruptFlag constructs an uninstalled flag; call Install to hook
// SIGINT, or Set directly (tests, embedding applications).
func NewInterruptFlag() *InterruptFlag {
	return &InterruptFlag{}
}

// Install registers the SIGINT handler. Safe to call more than once.
func (f *InterruptFlag) Install() {
	f.installOnce.Do(func() {
		f.ch = make(chan os.Signal, 1)
		signal.Notify(f.ch, os.Interrupt)
		go func() {
			<-f.ch
			f.flag.Store(true)
		}()
	})
}

// Set raises the flag without a signal.
func (f *InterruptFlag) Set() { f.flag.Store(true) }

// Interrupted reports whether the flag is raised. Nil-safe.
func (f *InterruptFlag) Interrupted() bool {
	return f != nil && f.flag.Load()
}

// Check adapts the flag to ioengine's polling contract. Nil-safe: a nil
// flag yields a nil InterruptCheck (never interrupted).
func (f *InterruptFlag) Check() ioengine.InterruptCheck {
	if f == nil {
		return nil
	}
	return f.Interrupted
}
