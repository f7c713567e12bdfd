// Package monitoring forwards failures to an error reporting service. The
// process-wide monitor defaults to a no-op until Init installs one.
package monitoring

import (
	"sync"
	"time"
)

// Monitor reports failures.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CapturePanic(v any, tags map[string]string)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any, map[string]string)       {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init installs m. A nil m restores the no-op monitor.
func Init(m Monitor) {
	if m == nil {
		m = NopMonitor{}
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records err with optional tags. A nil err is ignored.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// Guard runs fn. A panic in fn is reported and flushed, then re-raised.
func Guard(tags map[string]string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m := get()
			m.CapturePanic(r, tags)
			m.Flush(2 * time.Second)
			panic(r)
		}
	}()
	fn()
}

// Flush waits up to d for buffered reports to be delivered.
func Flush(d time.Duration) { get().Flush(d) }
