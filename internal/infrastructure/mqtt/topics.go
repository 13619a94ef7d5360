package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every faultcount topic.
const TopicPrefix = "faultcount"

// Topics provides builders for faultcount MQTT topics.
//
//	topic := mqtt.Topics{}.DeviceCount("pump-7")
//	// Returns: "faultcount/device/pump-7/count"
type Topics struct{}

// DeviceCount returns the retained topic carrying a device's latest count.
//
// Example: faultcount/device/pump-7/count
func (Topics) DeviceCount(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/count", TopicPrefix, topicSegment(deviceID))
}

// AllDeviceCounts returns a wildcard matching every DeviceCount topic.
func (Topics) AllDeviceCounts() string {
	return TopicPrefix + "/device/+/count"
}

// ScanCompleted returns the event topic published after every scan.
func (Topics) ScanCompleted() string {
	return TopicPrefix + "/event/scan_completed"
}

// SystemStatus returns the retained online/offline status topic.
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// topicSegment makes s safe to use as one topic level.
// Separators and wildcards become underscores; an empty ID becomes "_".
func topicSegment(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#', 0:
			return '_'
		}
		return r
	}, s)
}
