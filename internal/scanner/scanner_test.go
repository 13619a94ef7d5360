package scanner

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Brad-K99/EventCounterForRC/internal/device"
	"github.com/Brad-K99/EventCounterForRC/internal/eventlog"
)

// writeLog writes lines to a file in a temp dir and returns its path.
func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.log")
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing log: %v", err)
	}
	return path
}

func TestScanner_Run(t *testing.T) {
	tests := []struct {
		name      string
		lines     []string
		wantCount int
	}{
		{
			name: "stage 3 then stage 2 after dwell completes",
			lines: []string{
				"2024-01-01 10:00:00\t3",
				"2024-01-01 10:05:01\t2",
				"2024-01-01 10:05:02\t3",
				"2024-01-01 10:05:03\t0",
			},
			wantCount: 1,
		},
		{
			name: "short stage 3 does not count",
			lines: []string{
				"2024-01-01 10:00:00\t3",
				"2024-01-01 10:01:40\t2",
				"2024-01-01 10:01:41\t0",
			},
			wantCount: 0,
		},
		{
			name: "leading bare stage 2 is ignored",
			lines: []string{
				"2024-01-01 10:00:00\t2",
				"2024-01-01 10:00:01\t3",
				"2024-01-01 10:00:02\t0",
			},
			wantCount: 0,
		},
		{
			name: "two occurrences",
			lines: []string{
				"2024-01-01 10:00:00\t3",
				"2024-01-01 10:06:00\t2",
				"2024-01-01 10:07:00\t0",
				"2024-01-01 11:00:00\t3",
				"2024-01-01 11:10:00\t2",
				"2024-01-01 11:11:00\t3",
				"2024-01-01 11:12:00\t2",
				"2024-01-01 11:13:00\t0",
			},
			wantCount: 2,
		},
		{
			name: "no faulty stages ends at zero",
			lines: []string{
				"2024-01-01 10:00:00\t0",
				"2024-01-01 10:00:01\t1",
				"2024-01-01 10:00:02\t0",
			},
			wantCount: 0,
		},
		{
			name:      "empty file ends at zero",
			lines:     nil,
			wantCount: 0,
		},
		{
			name: "crlf line endings",
			lines: []string{
				"2024-01-01 10:00:00\t3\r",
				"2024-01-01 10:10:00\t2\r",
				"2024-01-01 10:10:01\t0\r",
			},
			wantCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := device.NewCounterStore()
			s := New(store)
			path := writeLog(t, tt.lines...)

			res, err := s.Run(context.Background(), "dev-a", path)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if res.Count != tt.wantCount {
				t.Errorf("Result.Count = %d, want %d", res.Count, tt.wantCount)
			}
			if got := s.Count("dev-a"); got != tt.wantCount {
				t.Errorf("Count() = %d, want %d", got, tt.wantCount)
			}
			if len(res.Occurrences) != tt.wantCount {
				t.Errorf("len(Occurrences) = %d, want %d", len(res.Occurrences), tt.wantCount)
			}
			if res.Lines != len(tt.lines) {
				t.Errorf("Lines = %d, want %d", res.Lines, len(tt.lines))
			}
			if res.Status() != StatusOK {
				t.Errorf("Status() = %q, want %q", res.Status(), StatusOK)
			}
			if !strings.HasPrefix(res.RunID, "scan-") {
				t.Errorf("RunID = %q, want scan- prefix", res.RunID)
			}
			if _, err := uuid.Parse(strings.TrimPrefix(res.RunID, "scan-")); err != nil {
				t.Errorf("RunID = %q, want scan-<uuid>: %v", res.RunID, err)
			}
		})
	}
}

func TestScanner_InvalidStageAborts(t *testing.T) {
	store := device.NewCounterStore()
	s := New(store)
	path := writeLog(t,
		"2024-01-01 09:00:00\t3",
		"2024-01-01 09:10:00\t2",
		"2024-01-01 09:11:00\t0",
		"2024-01-01 10:00:00\t9",
		"2024-01-01 10:00:01\tnot even read",
	)

	res, err := s.Run(context.Background(), "dev-a", path)
	if !errors.Is(err, ErrLineParse) {
		t.Fatalf("Run() error = %v, want ErrLineParse", err)
	}
	if !errors.Is(err, eventlog.ErrInvalidStage) {
		t.Errorf("Run() error = %v, want eventlog.ErrInvalidStage", err)
	}

	var lerr *LineError
	if !errors.As(err, &lerr) {
		t.Fatalf("Run() error = %T, want *LineError", err)
	}
	if lerr.LineNum != 4 || lerr.Line != "2024-01-01 10:00:00\t9" || lerr.DeviceID != "dev-a" {
		t.Errorf("LineError = %+v", lerr)
	}

	if got := s.Count("dev-a"); got != device.NotScanned {
		t.Errorf("Count() = %d, want %d", got, device.NotScanned)
	}
	if res.Count != device.NotScanned {
		t.Errorf("Result.Count = %d, want %d", res.Count, device.NotScanned)
	}
	if res.Lines != 4 {
		t.Errorf("Lines = %d, want 4 (scan must stop at the bad line)", res.Lines)
	}
	if res.Status() != StatusFailed {
		t.Errorf("Status() = %q, want %q", res.Status(), StatusFailed)
	}
}

func TestScanner_DecodeErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr error
	}{
		{"malformed line", "2024-01-01 10:00:00 3", eventlog.ErrMalformedLine},
		{"invalid stage", "2024-01-01 10:00:00\t4", eventlog.ErrInvalidStage},
		{"malformed date-time", "2024-01-01\t3", eventlog.ErrMalformedDateTime},
		{"unparseable timestamp", "2024-02-30 10:00:00\t3", eventlog.ErrUnparseableTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(device.NewCounterStore())
			_, err := s.Run(context.Background(), "dev-a", writeLog(t, tt.line))
			if !errors.Is(err, ErrLineParse) || !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() error = %v, want ErrLineParse and %v", err, tt.wantErr)
			}
		})
	}
}

func TestScanner_MissingFile(t *testing.T) {
	store := device.NewCounterStore()
	s := New(store)

	ok, err := s.Scan(context.Background(), "dev-a", filepath.Join(t.TempDir(), "missing.log"))
	if ok {
		t.Error("Scan() ok = true for missing file")
	}
	if !errors.Is(err, ErrFileOpen) {
		t.Errorf("Scan() error = %v, want ErrFileOpen", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Scan() error = %v, want os.ErrNotExist in chain", err)
	}
	if got := s.Count("dev-a"); got != device.NotScanned {
		t.Errorf("Count() = %d, want %d", got, device.NotScanned)
	}
}

// A failed scan replaces a previous good count with -1.
func TestScanner_FailureOverwritesPreviousCount(t *testing.T) {
	store := device.NewCounterStore()
	s := New(store)

	good := writeLog(t,
		"2024-01-01 10:00:00\t3",
		"2024-01-01 10:10:00\t2",
		"2024-01-01 10:10:01\t0",
	)
	if _, err := s.Run(context.Background(), "dev-a", good); err != nil {
		t.Fatalf("Run(good) error = %v", err)
	}
	if got := s.Count("dev-a"); got != 1 {
		t.Fatalf("Count() = %d, want 1", got)
	}

	if _, err := s.Run(context.Background(), "dev-a", filepath.Join(t.TempDir(), "gone.log")); err == nil {
		t.Fatal("Run(missing) error = nil")
	}
	if got := s.Count("dev-a"); got != device.NotScanned {
		t.Errorf("Count() after failed run = %d, want %d", got, device.NotScanned)
	}
}

func TestScanner_Idempotent(t *testing.T) {
	store := device.NewCounterStore()
	s := New(store)
	path := writeLog(t,
		"2024-01-01 10:00:00\t3",
		"2024-01-01 10:05:00\t2",
		"2024-01-01 10:05:01\t0",
		"2024-01-01 10:06:00\t3",
		"2024-01-01 10:20:00\t2",
		"2024-01-01 10:20:01\t0",
	)

	for i := 0; i < 3; i++ {
		if _, err := s.Run(context.Background(), "dev-a", path); err != nil {
			t.Fatalf("Run() #%d error = %v", i, err)
		}
		if got := s.Count("dev-a"); got != 2 {
			t.Errorf("Count() after run #%d = %d, want 2", i, got)
		}
	}
}

func TestScanner_LineTooLong(t *testing.T) {
	s := New(device.NewCounterStore(), WithMaxLineBytes(32))
	path := writeLog(t,
		"2024-01-01 10:00:00\t3",
		"2024-01-01 10:00:00\t3"+strings.Repeat(" ", 64),
	)

	_, err := s.Run(context.Background(), "dev-a", path)
	if !errors.Is(err, ErrFileRead) {
		t.Errorf("Run() error = %v, want ErrFileRead", err)
	}
	if got := s.Count("dev-a"); got != device.NotScanned {
		t.Errorf("Count() = %d, want %d", got, device.NotScanned)
	}
}

func TestScanner_CancelledContext(t *testing.T) {
	s := New(device.NewCounterStore())
	path := writeLog(t, "2024-01-01 10:00:00\t0")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Run(ctx, "dev-a", path)
	if !errors.Is(err, ErrScanAborted) || !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want ErrScanAborted wrapping context.Canceled", err)
	}
	if res.Status() != StatusAborted {
		t.Errorf("Status() = %q, want %q", res.Status(), StatusAborted)
	}
	if got := s.Count("dev-a"); got != device.NotScanned {
		t.Errorf("Count() = %d, want %d", got, device.NotScanned)
	}
}

// slowReader yields one line at a time with a delay before each.
type slowReader struct {
	lines [][]byte
	delay time.Duration
}

func (r *slowReader) Read(p []byte) (int, error) {
	if len(r.lines) == 0 {
		return 0, io.EOF
	}
	time.Sleep(r.delay)
	n := copy(p, r.lines[0])
	r.lines[0] = r.lines[0][n:]
	if len(r.lines[0]) == 0 {
		r.lines = r.lines[1:]
	}
	return n, nil
}

func (r *slowReader) Close() error { return nil }

// Readers running alongside a slow scan only ever see -1 or the final count.
func TestScanner_ReadersSeeOnlyFinalCount(t *testing.T) {
	var lines [][]byte
	// Five occurrences, so a leaked intermediate count would show as 1..4.
	for i := 0; i < 5; i++ {
		lines = append(lines,
			[]byte("2024-01-01 10:00:00\t3\n"),
			[]byte("2024-01-01 10:10:00\t2\n"),
			[]byte("2024-01-01 10:10:01\t0\n"),
		)
	}

	opener := func(string) (io.ReadCloser, error) {
		return &slowReader{lines: lines, delay: 2 * time.Millisecond}, nil
	}
	s := New(device.NewCounterStore(), WithOpener(opener))

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		close(started)
		if _, err := s.Run(context.Background(), "dev-a", "slow.log"); err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()
	<-started

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				if n := s.Count("dev-a"); n != device.NotScanned && n != 5 {
					t.Errorf("Count() observed %d during scan", n)
					return
				}
			}
		}()
	}

	<-done
	wg.Wait()

	if got := s.Count("dev-a"); got != 5 {
		t.Errorf("final Count() = %d, want 5", got)
	}
}

// Concurrent scans of one device are serialised and agree on the result.
func TestScanner_ConcurrentSameDevice(t *testing.T) {
	s := New(device.NewCounterStore())
	path := writeLog(t,
		"2024-01-01 10:00:00\t3",
		"2024-01-01 10:10:00\t2",
		"2024-01-01 10:10:01\t0",
	)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Run(context.Background(), "dev-a", path); err != nil {
				t.Errorf("Run() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := s.Count("dev-a"); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
	if s.Store().Len() != 1 {
		t.Errorf("Store().Len() = %d, want 1", s.Store().Len())
	}
}

func TestScanner_DeviceLimit(t *testing.T) {
	s := New(device.NewCounterStore(device.WithMaxDevices(1)))
	path := writeLog(t, "2024-01-01 10:00:00\t0")

	if _, err := s.Run(context.Background(), "dev-a", path); err != nil {
		t.Fatalf("Run(dev-a) error = %v", err)
	}
	_, err := s.Run(context.Background(), "dev-b", path)
	if !errors.Is(err, device.ErrLockRegistration) {
		t.Errorf("Run(dev-b) error = %v, want device.ErrLockRegistration", err)
	}
}

type recordingSink struct {
	mu      sync.Mutex
	results []Result
	err     error
	store   *device.CounterStore
	counts  []int
}

func (r *recordingSink) HandleResult(_ context.Context, res Result) error {
	// Reading the store here would deadlock if the guard were still held.
	count := r.store.ReadCount(res.DeviceID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	r.counts = append(r.counts, count)
	return r.err
}

type recordingOccurrences struct {
	mu   sync.Mutex
	occs []Occurrence
}

func (r *recordingOccurrences) HandleOccurrence(occ Occurrence) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.occs = append(r.occs, occ)
}

func TestScanner_Sinks(t *testing.T) {
	store := device.NewCounterStore()
	failing := &recordingSink{store: store, err: errors.New("sink down")}
	ok := &recordingSink{store: store}
	occs := &recordingOccurrences{}

	var funcCalls int
	s := New(store,
		WithSinks(failing, ok),
		WithSinks(ResultSinkFunc(func(context.Context, Result) error {
			funcCalls++
			return nil
		})),
		WithOccurrenceSink(occs),
	)

	path := writeLog(t,
		"2024-01-01 10:00:00\t3",
		"2024-01-01 10:10:00\t2",
		"2024-01-01 10:10:01\t0",
		"2024-01-01 11:00:00\t3",
		"2024-01-01 11:10:00\t2",
		"2024-01-01 11:10:05\t0",
	)

	res, err := s.Run(context.Background(), "dev-a", path)
	if err != nil {
		t.Fatalf("Run() error = %v (sink failure must not fail the scan)", err)
	}
	if res.Count != 2 {
		t.Errorf("Count = %d, want 2", res.Count)
	}

	for _, sink := range []*recordingSink{failing, ok} {
		if len(sink.results) != 1 {
			t.Fatalf("sink got %d results, want 1", len(sink.results))
		}
		if sink.results[0].RunID != res.RunID {
			t.Errorf("sink RunID = %q, want %q", sink.results[0].RunID, res.RunID)
		}
		if sink.counts[0] != 2 {
			t.Errorf("store count seen by sink = %d, want 2", sink.counts[0])
		}
	}
	if funcCalls != 1 {
		t.Errorf("ResultSinkFunc called %d times, want 1", funcCalls)
	}

	if len(occs.occs) != 2 {
		t.Fatalf("occurrences = %d, want 2", len(occs.occs))
	}
	want := time.Date(2024, 1, 1, 11, 10, 5, 0, time.UTC)
	if occs.occs[1].Ordinal != 2 || !occs.occs[1].At.Equal(want) || occs.occs[1].RunID != res.RunID {
		t.Errorf("second occurrence = %+v", occs.occs[1])
	}
}

func TestScanner_FailedRunDeliversNoOccurrences(t *testing.T) {
	tests := []struct {
		name string
		last string
	}{
		{name: "bad stage after completion", last: "2024-01-01 10:20:00\t9"},
		{name: "malformed line after completion", last: "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := device.NewCounterStore()
			occs := &recordingOccurrences{}
			s := New(store, WithOccurrenceSink(occs))

			path := writeLog(t,
				"2024-01-01 10:00:00\t3",
				"2024-01-01 10:10:00\t2",
				"2024-01-01 10:10:01\t0",
				tt.last,
			)

			res, err := s.Run(context.Background(), "dev-a", path)
			if !errors.Is(err, ErrLineParse) {
				t.Fatalf("Run() error = %v, want ErrLineParse", err)
			}
			if res.Count != -1 || store.ReadCount("dev-a") != -1 {
				t.Errorf("count = %d, stored = %d, want -1", res.Count, store.ReadCount("dev-a"))
			}
			if len(res.Occurrences) != 0 {
				t.Errorf("res.Occurrences = %v, want none", res.Occurrences)
			}
			if len(occs.occs) != 0 {
				t.Errorf("occurrence sink got %d, want 0", len(occs.occs))
			}
		})
	}
}

func TestScanner_OccurrencesBeforeResultSinks(t *testing.T) {
	store := device.NewCounterStore()
	occs := &recordingOccurrences{}
	var seen int
	s := New(store,
		WithOccurrenceSink(occs),
		WithSinks(ResultSinkFunc(func(context.Context, Result) error {
			occs.mu.Lock()
			seen = len(occs.occs)
			occs.mu.Unlock()
			return nil
		})),
	)

	path := writeLog(t,
		"2024-01-01 10:00:00\t3",
		"2024-01-01 10:10:00\t2",
		"2024-01-01 10:10:01\t0",
	)

	if _, err := s.Run(context.Background(), "dev-a", path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if seen != 1 {
		t.Errorf("occurrences delivered before result sink = %d, want 1", seen)
	}
}

func TestScanner_SinksSeeFailures(t *testing.T) {
	store := device.NewCounterStore()
	sink := &recordingSink{store: store}
	s := New(store, WithSinks(sink))

	_, err := s.Run(context.Background(), "dev-a", filepath.Join(t.TempDir(), "missing.log"))
	if err == nil {
		t.Fatal("Run() error = nil")
	}
	if len(sink.results) != 1 {
		t.Fatalf("sink got %d results, want 1", len(sink.results))
	}
	got := sink.results[0]
	if got.Status() != StatusFailed || !errors.Is(got.Err, ErrFileOpen) || got.Count != device.NotScanned {
		t.Errorf("sink result = status %q err %v count %d", got.Status(), got.Err, got.Count)
	}
}
