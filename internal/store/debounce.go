package store

import (
	"sync"
	"time"
)

// DefaultDebounce is how long the writer coalesces updates before
// flushing them to the backing store.
const DefaultDebounce = 250 * time.Millisecond

// Writer batches Set calls per key and flushes them after a quiet
// period, so rapid successive edits cost one write each. Close always
// flushes whatever is pending.
type Writer struct {
	mu       sync.Mutex
	kv       KV
	delay    time.Duration
	pending  map[string][]byte
	timer    *time.Timer
	warn     func(Warning)
	reported bool
	closed   bool
}

// NewWriter wraps kv with a debounced write path. A zero delay falls
// back to DefaultDebounce. warn may be nil.
func NewWriter(kv KV, delay time.Duration, warn func(Warning)) *Writer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Writer{
		kv:      kv,
		delay:   delay,
		pending: map[string][]byte{},
		warn:    warn,
	}
}

// Put schedules value for key. The latest value per key wins.
func (w *Writer) Put(key string, value []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending[key] = value
	if w.timer == nil {
		w.timer = time.AfterFunc(w.delay, w.Flush)
	} else {
		w.timer.Reset(w.delay)
	}
}

// Flush writes all pending entries immediately.
func (w *Writer) Flush() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	batch := w.pending
	w.pending = map[string][]byte{}
	w.mu.Unlock()

	for key, value := range batch {
		if err := w.kv.Set(key, value); err != nil {
			w.failed(key, err)
		}
	}
}

// Close flushes pending writes and rejects further Put calls.
func (w *Writer) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.Flush()
}

// failed reports the first write failure; persistence problems repeat
// on every flush, so one warning is enough.
func (w *Writer) failed(key string, err error) {
	w.mu.Lock()
	already := w.reported
	w.reported = true
	w.mu.Unlock()
	if already {
		return
	}
	report(w.warn, Warning{Op: "write", Key: key, Message: err.Error()})
}
