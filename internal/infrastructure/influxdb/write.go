package influxdb

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/Brad-K99/EventCounterForRC/internal/scanner"
)

// Measurement names.
const (
	MeasurementFaultySequence = "faulty_sequence"
	MeasurementScanResult     = "scan_result"
)

// PointWriter queues points for writing. *Client implements it.
type PointWriter interface {
	WritePoint(p *write.Point)
}

// Telemetry turns scan activity into InfluxDB points. It is both a
// scanner.OccurrenceSink and a scanner.ResultSink.
//
// Occurrence points are stamped with the log time of the line that
// completed the sequence, so re-scanning a log overwrites the same points
// instead of duplicating them.
type Telemetry struct {
	w   PointWriter
	now func() time.Time
}

// NewTelemetry creates a Telemetry writing through w.
func NewTelemetry(w PointWriter) *Telemetry {
	return &Telemetry{w: w, now: time.Now}
}

// HandleOccurrence writes one faulty_sequence point. It never blocks.
func (t *Telemetry) HandleOccurrence(occ scanner.Occurrence) {
	t.w.WritePoint(OccurrencePoint(occ))
}

// HandleResult writes one scan_result point.
func (t *Telemetry) HandleResult(_ context.Context, res scanner.Result) error {
	ts := res.FinishedAt
	if ts.IsZero() {
		ts = t.now()
	}
	t.w.WritePoint(ScanResultPoint(res, ts))
	return nil
}

// OccurrencePoint builds the faulty_sequence point for occ.
func OccurrencePoint(occ scanner.Occurrence) *write.Point {
	return write.NewPoint(
		MeasurementFaultySequence,
		map[string]string{
			"device_id": occ.DeviceID,
		},
		map[string]interface{}{
			"ordinal": occ.Ordinal,
			"run_id":  occ.RunID,
		},
		occ.At,
	)
}

// ScanResultPoint builds the scan_result point for res at ts.
func ScanResultPoint(res scanner.Result, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementScanResult,
		map[string]string{
			"device_id": res.DeviceID,
			"status":    res.Status(),
		},
		map[string]interface{}{
			"count":       res.Count,
			"lines":       res.Lines,
			"duration_ms": res.Duration().Milliseconds(),
		},
		ts,
	)
}
