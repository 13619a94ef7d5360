package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DeviceCount is the API view of one device's counter.
type DeviceCount struct {
	DeviceID string `json:"device_id"`
	Count    int    `json:"count"`
}

// handleListDevices returns every registered device with its current count.
//
// Each count is read under the device's shared lock, so a device whose scan
// is in flight delays the response until that scan finishes.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	ids := s.store.Devices()
	devices := make([]DeviceCount, 0, len(ids))
	for _, id := range ids {
		devices = append(devices, DeviceCount{DeviceID: id, Count: s.store.ReadCount(id)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDeviceCount returns one device's count. Unknown devices are not
// registered as a side effect.
func (s *Server) handleGetDeviceCount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	count, ok := s.store.Lookup(id)
	if !ok {
		writeNotFound(w, "device not found")
		return
	}

	writeJSON(w, http.StatusOK, DeviceCount{DeviceID: id, Count: count})
}
