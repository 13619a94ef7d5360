package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Brad-K99/EventCounterForRC/internal/device"
	"github.com/Brad-K99/EventCounterForRC/internal/eventlog"
	"github.com/Brad-K99/EventCounterForRC/internal/faultseq"
)

// Scanner runs scans against a CounterStore.
// A Scanner is safe for concurrent use; scans of the same device are
// serialised by the store.
type Scanner struct {
	store        *device.CounterStore
	open         Opener
	sinks        []ResultSink
	occurrences  OccurrenceSink
	logger       Logger
	maxLineBytes int
}

// New creates a Scanner that records counts in store.
func New(store *device.CounterStore, opts ...Option) *Scanner {
	s := &Scanner{
		store:        store,
		open:         openFile,
		logger:       noopLogger{},
		maxLineBytes: DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the store the scanner writes to.
func (s *Scanner) Store() *device.CounterStore {
	return s.store
}

// Run scans the log at path for device id and stores the number of faulty
// occurrences found. It blocks until no other scan or reader holds the device.
//
// On any error the stored count is left at -1 and the returned Result
// carries the same error and no occurrences. Sinks are notified after the
// device is released, and occurrences only for a run that reached end of file.
func (s *Scanner) Run(ctx context.Context, id, path string) (Result, error) {
	res := Result{
		RunID:     "scan-" + uuid.NewString(),
		DeviceID:  id,
		Path:      path,
		Count:     device.NotScanned,
		StartedAt: time.Now().UTC(),
	}

	err := s.scan(ctx, &res)

	res.FinishedAt = time.Now().UTC()
	if err != nil {
		res.Count = device.NotScanned
		res.Occurrences = nil
		res.Err = err
		s.logger.Warn("scan failed",
			"run_id", res.RunID,
			"device_id", id,
			"path", path,
			"lines", res.Lines,
			"error", err,
		)
	} else {
		s.logger.Info("scan completed",
			"run_id", res.RunID,
			"device_id", id,
			"path", path,
			"count", res.Count,
			"lines", res.Lines,
			"duration", res.Duration(),
		)
	}

	if err == nil {
		s.emitOccurrences(res)
	}
	s.notify(ctx, res)
	return res, err
}

// scan holds the device's write guard for the whole read of the file.
func (s *Scanner) scan(ctx context.Context, res *Result) error {
	guard, err := s.store.BeginWrite(res.DeviceID)
	if err != nil {
		return fmt.Errorf("scanning device %q: %w", res.DeviceID, err)
	}
	defer guard.Release()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrScanAborted, err)
	}

	f, err := s.open(res.Path)
	if err != nil {
		return fmt.Errorf("%w: device %q: %w", ErrFileOpen, res.DeviceID, err)
	}
	defer f.Close()

	initial := 4096
	if s.maxLineBytes < initial {
		initial = s.maxLineBytes
	}
	lines := bufio.NewScanner(f)
	lines.Buffer(make([]byte, 0, initial), s.maxLineBytes)

	det := faultseq.NewDetector()
	count := 0

	for lines.Scan() {
		if err := ctx.Err(); err != nil {
			guard.SetCount(device.NotScanned)
			return fmt.Errorf("%w: device %q after %d lines: %w", ErrScanAborted, res.DeviceID, res.Lines, err)
		}

		res.Lines++
		line := lines.Text()

		ev, err := eventlog.Decode(line)
		if err != nil {
			guard.SetCount(device.NotScanned)
			return &LineError{
				DeviceID: res.DeviceID,
				Path:     res.Path,
				LineNum:  res.Lines,
				Line:     line,
				Err:      err,
			}
		}

		if !det.Feed(ev) {
			continue
		}

		count++
		guard.SetCount(count)
		res.Occurrences = append(res.Occurrences, ev.Timestamp)
	}

	if err := lines.Err(); err != nil {
		guard.SetCount(device.NotScanned)
		if errors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("%w: device %q: line %d longer than %d bytes", ErrFileRead, res.DeviceID, res.Lines+1, s.maxLineBytes)
		}
		return fmt.Errorf("%w: device %q: %w", ErrFileRead, res.DeviceID, err)
	}

	guard.SetCount(count)
	res.Count = count
	return nil
}

// emitOccurrences replays the occurrences of a successful run to the
// occurrence sink.
func (s *Scanner) emitOccurrences(res Result) {
	if s.occurrences == nil {
		return
	}
	for i, at := range res.Occurrences {
		s.occurrences.HandleOccurrence(Occurrence{
			DeviceID: res.DeviceID,
			RunID:    res.RunID,
			Ordinal:  i + 1,
			At:       at,
		})
	}
}

// notify hands res to every sink. Sink failures are logged only.
func (s *Scanner) notify(ctx context.Context, res Result) {
	// Sinks still run when the scan was aborted by cancellation.
	ctx = context.WithoutCancel(ctx)

	for _, sink := range s.sinks {
		if err := sink.HandleResult(ctx, res); err != nil {
			s.logger.Warn("result sink failed",
				"run_id", res.RunID,
				"device_id", res.DeviceID,
				"error", err,
			)
		}
	}
}

// Scan runs one scan and reports whether it succeeded.
func (s *Scanner) Scan(ctx context.Context, id, path string) (bool, error) {
	_, err := s.Run(ctx, id, path)
	return err == nil, err
}

// Count returns the stored count for id, or -1 if it has never been
// scanned successfully. It blocks while id is being scanned.
func (s *Scanner) Count(id string) int {
	return s.store.ReadCount(id)
}
