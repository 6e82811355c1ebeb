package rest

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Executor runs handlers with a bound on how many run at once. A request
// that finds every slot taken is rejected instead of queued.
type Executor struct {
	log   logrus.FieldLogger
	limit int64
	sem   *semaphore.Weighted
}

// NewExecutor returns an Executor allowing limit concurrent handlers, or
// any number when limit is not positive.
func NewExecutor(log logrus.FieldLogger, limit int) *Executor {
	e := &Executor{log: log, limit: int64(limit)}
	if limit > 0 {
		e.sem = semaphore.NewWeighted(int64(limit))
	}
	return e
}

// Execute invokes h. Panics are turned into an *InternalError.
func (e *Executor) Execute(ctx context.Context, h Handler, req *Request, ch *Channel) (err error) {
	if e.sem != nil {
		if !e.sem.TryAcquire(1) {
			return &RejectedExecutionError{Limit: e.limit}
		}
		defer e.sem.Release(1)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			e.log.WithField("stack", string(debug.Stack())).Errorf("handler for [%s] panicked: %v", req.Path(), p)
			err = &InternalError{Err: fmt.Errorf("handler panicked: %v", p)}
		}
	}()
	return h.HandleRequest(req, ch)
}
