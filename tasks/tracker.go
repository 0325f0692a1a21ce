// Package tasks runs fire-and-forget background work while letting shutdown
// paths and tests wait deterministically for everything in flight.
package tasks

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Tracker schedules background functions. Errors are logged, never
// propagated to callers; background work must not destabilize the threads
// that dispatched it.
type Tracker struct {
	log *logrus.Logger
	g   errgroup.Group
}

func New(log *logrus.Logger) *Tracker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{log: log}
}

// Go runs fn on its own goroutine. A non-nil error is logged under the task
// name.
func (t *Tracker) Go(name string, fn func() error) {
	t.g.Go(func() error {
		if err := fn(); err != nil {
			t.log.WithError(err).WithField("task", name).Warn("background task failed")
		}
		return nil
	})
}

// Wait blocks until all work scheduled so far has completed.
func (t *Tracker) Wait() {
	_ = t.g.Wait()
}
