package dispatcher

import "sync/atomic"

// newUnboundedQueue builds the single shared inbound queue (§4.4): an
// unbounded multi-producer/single-consumer FIFO backed by a growable
// internal buffer and a forwarding goroutine, the standard Go pattern
// for an unbounded channel.
func newUnboundedQueue[T any]() (in chan<- T, out <-chan T, depth func() int) {
	inCh := make(chan T)
	outCh := make(chan T)
	var n atomic.Int64

	go func() {
		defer close(outCh)
		var buf []T

		for {
			if len(buf) == 0 {
				v, ok := <-inCh
				if !ok {
					return
				}
				buf = append(buf, v)
				n.Store(int64(len(buf)))
			}

			select {
			case v, ok := <-inCh:
				if !ok {
					for _, item := range buf {
						outCh <- item
					}
					n.Store(0)
					return
				}
				buf = append(buf, v)
				n.Store(int64(len(buf)))
			case outCh <- buf[0]:
				buf = buf[1:]
				n.Store(int64(len(buf)))
			}
		}
	}()

	return inCh, outCh, func() int { return int(n.Load()) }
}
