// Package dispatch runs a batch of log scans concurrently and reports the
// resulting counts.
//
// The command line names a worker count followed by device ID / log file
// pairs. Worker i scans pair i mod len(pairs), so with more workers than
// pairs some logs are scanned several times, concurrently, against the same
// counter. Scans of one device serialise on that device's lock; scans of
// different devices run in parallel.
package dispatch
