package fake

import (
	"errors"
	"sync"
)

// ErrCancelled is the Result() error for a transfer that Cancel stopped
// before its handler finished.
var ErrCancelled = errors.New("fake: transfer cancelled")

// transfer implements usbdevice.Transfer, grounded on the gousb usbTransfer
// submit/wait/cancel idiom: completion is signalled asynchronously via
// done, and Cancel may race the handler goroutine that would otherwise
// complete it.
type transfer struct {
	done chan struct{}
	once sync.Once

	mu        sync.Mutex
	n         int
	err       error
	cancelled bool
}

// finish records the result and closes done exactly once. If the transfer
// was already cancelled, the handler's result is discarded.
func (t *transfer) finish(n int, err error) {
	t.mu.Lock()
	if !t.cancelled {
		t.n, t.err = n, err
	}
	t.mu.Unlock()
	t.once.Do(func() { close(t.done) })
}

func (t *transfer) Done() <-chan struct{} { return t.done }

func (t *transfer) Result() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return 0, ErrCancelled
	}
	return t.n, t.err
}

func (t *transfer) Cancel() error {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
	t.once.Do(func() { close(t.done) })
	return nil
}
