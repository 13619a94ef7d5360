package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Brad-K99/EventCounterForRC/internal/scanner"
)

// Publisher is the part of Client the ResultPublisher needs.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
	PublishEvent(topic string, payload []byte) error
}

// CountMessage is the payload for device count and scan completed messages.
type CountMessage struct {
	DeviceID   string `json:"device_id"`
	Count      int    `json:"count"`
	Path       string `json:"path"`
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
	Lines      int    `json:"lines"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Timestamp  string `json:"timestamp"`
}

// NewCountMessage builds the message for a finished scan.
func NewCountMessage(res scanner.Result) CountMessage {
	msg := CountMessage{
		DeviceID:   res.DeviceID,
		Count:      res.Count,
		Path:       res.Path,
		RunID:      res.RunID,
		Status:     res.Status(),
		Lines:      res.Lines,
		DurationMS: res.Duration().Milliseconds(),
		Timestamp:  res.FinishedAt.UTC().Format(time.RFC3339),
	}
	if res.Err != nil {
		msg.Error = res.Err.Error()
	}
	return msg
}

// ResultPublisher publishes every finished scan: the device's count as a
// retained message and a scan_completed event.
type ResultPublisher struct {
	pub Publisher
}

// NewResultPublisher creates a ResultPublisher writing through pub.
func NewResultPublisher(pub Publisher) *ResultPublisher {
	return &ResultPublisher{pub: pub}
}

// HandleResult publishes res. Both messages are attempted even if the
// first fails.
func (p *ResultPublisher) HandleResult(_ context.Context, res scanner.Result) error {
	payload, err := json.Marshal(NewCountMessage(res))
	if err != nil {
		return fmt.Errorf("marshalling count message: %w", err)
	}

	topics := Topics{}
	errCount := p.pub.PublishRetained(topics.DeviceCount(res.DeviceID), payload)
	errEvent := p.pub.PublishEvent(topics.ScanCompleted(), payload)

	if err := errors.Join(errCount, errEvent); err != nil {
		return fmt.Errorf("publishing result for device %q: %w", res.DeviceID, err)
	}
	return nil
}
