package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrLockRegistration) {
//	    // the store refused to register a new device
//	}
var (
	// ErrLockRegistration is returned when a device's lock cannot be
	// registered, for example because the store's device limit is reached.
	ErrLockRegistration = errors.New("device: lock registration failed")
)
