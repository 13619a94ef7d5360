package dispatch

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/Brad-K99/EventCounterForRC/internal/scanner"
)

// Runner runs one scan. *scanner.Scanner implements it.
type Runner interface {
	Run(ctx context.Context, deviceID, path string) (scanner.Result, error)
}

// Logger is the logging interface used by the dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Report is the outcome of one worker.
type Report struct {
	Worker int
	Pair
	Count int // -1 when Err is set
	RunID string
	Err   error
}

// String renders the report line printed by the CLI.
func (r Report) String() string {
	return fmt.Sprintf("For device %s, log file %s, the faulty sequence count == %d",
		r.DeviceID, r.Path, r.Count)
}

// Dispatcher starts one worker per planned scan and waits for all of them.
type Dispatcher struct {
	runner Runner
	logger Logger
}

// New creates a Dispatcher running scans through runner.
func New(runner Runner) *Dispatcher {
	return &Dispatcher{runner: runner, logger: noopLogger{}}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	d.logger = logger
}

// Run starts plan.Workers concurrent scans, worker i scanning
// plan.Assignment(i), and returns one report per worker in worker order.
//
// A failed scan never stops the others; its report carries Count -1 and
// the error.
func (d *Dispatcher) Run(ctx context.Context, plan Plan) []Report {
	reports := make([]Report, plan.Workers)

	d.logger.Info("dispatching scans", "workers", plan.Workers, "pairs", len(plan.Pairs))

	var g errgroup.Group
	for i := range reports {
		i := i
		g.Go(func() error {
			pair := plan.Assignment(i)
			res, err := d.runner.Run(ctx, pair.DeviceID, pair.Path)

			count := res.Count
			if err != nil {
				count = -1
			}
			reports[i] = Report{Worker: i, Pair: pair, Count: count, RunID: res.RunID, Err: err}

			d.logger.Debug("worker finished", "worker", i, "device_id", pair.DeviceID, "count", count)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	return reports
}

// WriteReports writes one line per report, in order.
func WriteReports(w io.Writer, reports []Report) error {
	for _, r := range reports {
		if _, err := fmt.Fprintln(w, r.String()); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return nil
}
