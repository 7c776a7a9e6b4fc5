package workpool

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/paperscope/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/paperscope/internal/logging"
)

// Task processes one unit of work. index is the unit's position in the
// input slice.
type Task[T any, R any] func(index int, item T) (R, error)

// Options configures a pool run.
type Options struct {
	Workers int    // <= 0 means runtime.NumCPU()
	Stage   string // label for logs and metrics
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

// UnitError records a unit that failed and was skipped.
type UnitError struct {
	Index int
	Err   error
}

func (e UnitError) Error() string {
	return fmt.Sprintf("unit %d: %v", e.Index, e.Err)
}

func (e UnitError) Unwrap() error {
	return e.Err
}

// Result holds the joined output of a run. Values is positional: Values[i]
// belongs to item i and is the zero value when that unit failed.
type Result[R any] struct {
	Values []R
	Failed []UnitError
}

// Succeeded reports how many units completed without error.
func (r Result[R]) Succeeded() int {
	return len(r.Values) - len(r.Failed)
}

// Run submits one task per item to a pool of at most opts.Workers goroutines
// and blocks until every unit has finished. A unit that returns an error or
// panics is logged and contributes a zero value; it never stops the others.
func Run[T any, R any](items []T, opts Options, task Task[T, R]) Result[R] {
	res := Result[R]{Values: make([]R, len(items))}
	if len(items) == 0 {
		return res
	}

	logger := logging.Component(opts.Logger, "workpool")
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Each unit writes only its own slot, so the slices need no locking.
	errs := make([]error, len(items))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		g.Go(func() error {
			v, err := safeCall(task, i, item)
			if err != nil {
				errs[i] = err
				return nil
			}
			res.Values[i] = v
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		res.Failed = append(res.Failed, UnitError{Index: i, Err: err})
		opts.Metrics.UnitFailed(opts.Stage)
		logger.Error("Unit failed, skipping",
			zap.String("stage", opts.Stage),
			zap.Int("unit", i),
			zap.Error(err))
	}

	return res
}

func safeCall[T any, R any](task Task[T, R], i int, item T) (v R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return task(i, item)
}
