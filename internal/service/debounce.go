package service

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of triggers per key into one call, fired once
// the key has been quiet for the given delay. Entries are dropped as soon
// as they fire, so the map only holds keys with a call still pending.
type debouncer struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer() *debouncer {
	return &debouncer{pending: make(map[string]*time.Timer)}
}

// Trigger (re)arms key. fn runs on its own goroutine after delay unless
// key is triggered again or the debouncer is stopped first.
func (d *debouncer) Trigger(key string, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.pending[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		d.mu.Lock()
		// A newer trigger replaced this timer after it had already fired.
		if d.stopped || d.pending[key] != t {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.wg.Add(1)
		d.mu.Unlock()

		defer d.wg.Done()
		fn()
	})
	d.pending[key] = t
}

// Pending returns the number of keys waiting to fire.
func (d *debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels pending calls and waits for running ones. Later triggers
// are ignored.
func (d *debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.pending {
		t.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
