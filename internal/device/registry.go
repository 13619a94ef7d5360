package device

import (
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the CounterStore.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NotScanned is the count reported for a device that has never been scanned,
// whose scan is in progress, or whose last scan failed.
const NotScanned = -1

// record is one device's count and the lock guarding it.
type record struct {
	mu    sync.RWMutex
	count int
}

// CounterStore maps device IDs to their faulty sequence counts.
//
// Each device has its own reader/writer lock: one writer (a scan) at a time,
// any number of concurrent readers, and no contention between devices.
// The table of devices is guarded by a separate lock so that two workers
// touching an unseen device for the first time share one record.
//
// All public methods are thread-safe.
type CounterStore struct {
	records    map[string]*record
	recordsMu  sync.RWMutex // Protects records; never held while waiting on a device lock
	maxDevices int
	logger     Logger
}

// Option configures a CounterStore.
type Option func(*CounterStore)

// WithMaxDevices caps the number of distinct devices the store will register.
// Zero means unlimited.
func WithMaxDevices(n int) Option {
	return func(s *CounterStore) {
		s.maxDevices = n
	}
}

// WithLogger sets the logger for the store.
func WithLogger(logger Logger) Option {
	return func(s *CounterStore) {
		s.logger = logger
	}
}

// NewCounterStore creates an empty store.
func NewCounterStore(opts ...Option) *CounterStore {
	s := &CounterStore{
		records: make(map[string]*record),
		logger:  noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetLogger sets the logger for the store.
func (s *CounterStore) SetLogger(logger Logger) {
	s.logger = logger
}

// lookup returns the record for id without registering it.
func (s *CounterStore) lookup(id string) (*record, bool) {
	s.recordsMu.RLock()
	rec, ok := s.records[id]
	s.recordsMu.RUnlock()
	return rec, ok
}

// getOrCreate returns the record for id, registering a fresh one on first touch.
func (s *CounterStore) getOrCreate(id string) (*record, error) {
	if rec, ok := s.lookup(id); ok {
		return rec, nil
	}

	s.recordsMu.Lock()
	defer s.recordsMu.Unlock()

	// Another worker may have registered id between the two locks.
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}

	if s.maxDevices > 0 && len(s.records) >= s.maxDevices {
		return nil, fmt.Errorf("%w: device %q: limit of %d devices reached",
			ErrLockRegistration, id, s.maxDevices)
	}

	rec := &record{count: NotScanned}
	s.records[id] = rec
	s.logger.Debug("device registered", "device_id", id, "devices", len(s.records))
	return rec, nil
}

// LockFor returns the reader/writer lock for id, registering the device if
// it has not been seen before. Concurrent callers for the same id always
// receive the same lock.
func (s *CounterStore) LockFor(id string) (*sync.RWMutex, error) {
	rec, err := s.getOrCreate(id)
	if err != nil {
		return nil, err
	}
	return &rec.mu, nil
}

// BeginWrite acquires exclusive access to id's count and marks it as
// NotScanned until the guard is released. It blocks while any reader or
// another writer holds the device.
func (s *CounterStore) BeginWrite(id string) (*WriteGuard, error) {
	rec, err := s.getOrCreate(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	rec.count = NotScanned
	return &WriteGuard{id: id, rec: rec}, nil
}

// ReadCount returns id's count under a shared lock. It blocks while a scan
// of id is in progress and returns NotScanned for unknown devices without
// registering them.
func (s *CounterStore) ReadCount(id string) int {
	count, _ := s.Lookup(id)
	return count
}

// Lookup is ReadCount that also reports whether id has ever been registered.
func (s *CounterStore) Lookup(id string) (int, bool) {
	rec, ok := s.lookup(id)
	if !ok {
		return NotScanned, false
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()
	return rec.count, true
}

// Devices returns the registered device IDs in sorted order.
func (s *CounterStore) Devices() []string {
	s.recordsMu.RLock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	s.recordsMu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Len returns the number of registered devices.
func (s *CounterStore) Len() int {
	s.recordsMu.RLock()
	defer s.recordsMu.RUnlock()
	return len(s.records)
}

// WriteGuard is exclusive access to one device's count, obtained from
// BeginWrite. It must be released exactly once; extra Release calls are no-ops.
// A WriteGuard is owned by the goroutine that obtained it.
type WriteGuard struct {
	id       string
	rec      *record
	released bool
}

// DeviceID returns the device the guard holds.
func (g *WriteGuard) DeviceID() string {
	return g.id
}

// SetCount stores n as the device's count. Readers see it only after Release.
// Calls after Release are ignored.
func (g *WriteGuard) SetCount(n int) {
	if g.released {
		return
	}
	g.rec.count = n
}

// Release unlocks the device.
func (g *WriteGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.rec.mu.Unlock()
}
