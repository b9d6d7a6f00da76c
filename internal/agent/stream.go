package agent

import (
	"context"
	"sync"
)

// chanStream adapts a producer goroutine to the EventStream interface.
type chanStream struct {
	events chan Event
	done   chan struct{}
	cancel context.CancelFunc

	cur Event

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

// newChanStream starts produce on its own goroutine. produce must send
// events through emit, which fails once the stream is closed or ctx ends.
func newChanStream(ctx context.Context, produce func(ctx context.Context, emit func(Event) error) error) *chanStream {
	ctx, cancel := context.WithCancel(ctx)
	s := &chanStream{
		events: make(chan Event),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(s.done)
		defer close(s.events)

		err := produce(ctx, func(ev Event) error {
			select {
			case s.events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}()

	return s
}

func (s *chanStream) Next() bool {
	ev, ok := <-s.events
	if !ok {
		return false
	}
	s.cur = ev
	return true
}

func (s *chanStream) Current() Event {
	return s.cur
}

// Err returns the producer's error once the stream is exhausted.
func (s *chanStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the producer and waits for it to exit.
func (s *chanStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}
