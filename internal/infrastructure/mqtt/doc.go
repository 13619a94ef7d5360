// Package mqtt publishes scan results to an MQTT broker.
//
// Topics (see Topics):
//
//	faultcount/device/{id}/count      retained, latest result per device
//	faultcount/event/scan_completed   one message per finished scan
//	faultcount/system/status          retained online/offline, set as LWT
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	s := scanner.New(store, scanner.WithSinks(mqtt.NewResultPublisher(client)))
//
// TLS should be enabled (cfg.Broker.TLS) whenever the broker is not local.
package mqtt
