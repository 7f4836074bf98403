package stream

import (
	"context"
	"io"
	"sync"

	"github.com/kilianp07/fleetscope/core/telemetry"
)

// Buffered wraps a Reader with a bounded prefetch queue filled by a
// single goroutine. Consumers still pull records one at a time, so the
// merge ordering downstream is unchanged; only I/O latency is hidden.
type Buffered struct {
	inner Reader
	ch    chan bufItem
	stop  context.CancelFunc
	wg    sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

type bufItem struct {
	rec telemetry.Record
	err error
}

// NewBuffered starts prefetching up to size records from inner.
func NewBuffered(inner Reader, size int) *Buffered {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Buffered{
		inner: inner,
		ch:    make(chan bufItem, size),
		stop:  cancel,
	}
	b.wg.Add(1)
	go b.fill(ctx)
	return b
}

func (b *Buffered) fill(ctx context.Context) {
	defer b.wg.Done()
	defer close(b.ch)
	for {
		rec, err := b.inner.Next(ctx)
		b.mu.Lock()
		b.stats = b.inner.Stats()
		b.mu.Unlock()
		select {
		case b.ch <- bufItem{rec: rec, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func (b *Buffered) Kind() telemetry.Kind { return b.inner.Kind() }

func (b *Buffered) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

func (b *Buffered) Next(ctx context.Context) (telemetry.Record, error) {
	select {
	case it, ok := <-b.ch:
		if !ok {
			return nil, io.EOF
		}
		return it.rec, it.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the prefetcher and releases the wrapped reader.
func (b *Buffered) Close() error {
	b.stop()
	b.wg.Wait()
	return b.inner.Close()
}
