// Package influxdb writes scan telemetry to InfluxDB v2.
//
// Two measurements are written:
//
//	faulty_sequence  tag device_id; fields ordinal, run_id; time = log time of the completing line
//	scan_result      tags device_id, status; fields count, lines, duration_ms
//
// Usage:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	tel := influxdb.NewTelemetry(client)
//	s := scanner.New(store,
//	    scanner.WithSinks(tel),
//	    scanner.WithOccurrenceSink(tel),
//	)
//
// Writes are batched (batch_size, flush_interval) and never block the
// scanner. Write failures are reported through Client.SetOnError.
package influxdb
