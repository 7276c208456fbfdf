package location

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/pkg/geospatial"
)

// DefaultDistanceIntervalMeters matches the mobile app's watch setting.
const DefaultDistanceIntervalMeters = 10000

// Options tune a Watch.
type Options struct {
	// DistanceIntervalMeters suppresses fixes closer than this to the last
	// delivered one. Zero delivers every fix.
	DistanceIntervalMeters float64
}

// Subscription is a running Watch.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Watch delivers fixes from src to fn on its own goroutine until src ends,
// ctx is cancelled, or Stop is called. The first fix is always delivered.
// If src is an io.Closer it is closed when the watch ends.
func Watch(ctx context.Context, src Source, opts Options, fn func(domain.Coordinate)) (*Subscription, error) {
	if src == nil {
		return nil, errors.New("location: nil source")
	}
	if fn == nil {
		return nil, errors.New("location: nil callback")
	}
	if opts.DistanceIntervalMeters < 0 {
		return nil, errors.New("location: negative distance interval")
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}
	go sub.run(ctx, src, opts, fn)
	return sub, nil
}

func (s *Subscription) run(ctx context.Context, src Source, opts Options, fn func(domain.Coordinate)) {
	defer close(s.done)
	defer s.cancel()
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	var last *domain.Coordinate
	for {
		c, err := src.Next(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if last != nil && geospatial.Distance(*last, c)*1000 < opts.DistanceIntervalMeters {
			continue
		}
		fix := c
		last = &fix
		fn(c)
	}
}

// Stop ends the watch and waits for the goroutine to exit. It is safe to
// call more than once. fn must not call Stop.
func (s *Subscription) Stop() {
	s.cancel()
	<-s.done
}

// Done is closed when the watch has ended.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err reports why the stream ended: nil on io.EOF or Stop.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
