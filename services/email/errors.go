package emailsvc

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

// sendErrors collects the failed sends until the next Wait.
type sendErrors struct {
	mu   sync.Mutex
	errs []error
}

func (se *sendErrors) add(err error) {
	se.mu.Lock()
	se.errs = append(se.errs, err)
	se.mu.Unlock()
}

func (se *sendErrors) take() error {
	se.mu.Lock()
	defer se.mu.Unlock()

	errs := se.errs
	se.errs = nil
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return errors.Wrapf(errs[0], "%d emails failed, first", len(errs))
	}
}

// Waiter is implemented by the services that send asynchronously.
type Waiter interface {
	Wait() error
}

// Wait blocks until svc has sent its pending messages, when svc supports it,
// and returns the failures collected since the previous Wait.
func Wait(svc core.EmailService) error {
	if w, ok := svc.(Waiter); ok {
		return w.Wait()
	}
	return nil
}
