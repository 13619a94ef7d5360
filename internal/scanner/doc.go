// Package scanner counts faulty sequences in one device's log.
//
// A scan takes the device's write guard from the CounterStore, decodes the
// log line by line, feeds each event to a fresh faultseq.Detector and stores
// the number of completed occurrences. The guard is held for the whole file,
// so concurrent readers see either the previous count or the final one.
//
// Any failure (open, decode, read, cancellation) stops the scan at once and
// leaves the count at -1. Lines after a bad line are never examined.
//
// Finished scans are handed to ResultSinks (history, MQTT, the API hub)
// after the guard is released. The occurrences of a successful scan are
// replayed to the OccurrenceSink just before; a failed scan has none.
package scanner
