// Package device provides the per-device counter store for faultcount.
//
// The CounterStore holds the latest faulty sequence count for every device
// that has been scanned. Scans and readers meet here:
//
//	┌──────────────┐  BeginWrite / SetCount / Release  ┌──────────────────┐
//	│   scanner    │──────────────────────────────────▶│                  │
//	└──────────────┘                                   │   CounterStore   │
//	┌──────────────┐  ReadCount / Lookup / Devices     │  id → {mu,count} │
//	│  CLI, API    │──────────────────────────────────▶│                  │
//	└──────────────┘                                   └──────────────────┘
//
// # Locking
//
// Every device has its own sync.RWMutex. A scan holds it exclusively for the
// whole run, so readers never see a count from a scan that is still going:
// they either block or see the value from before the scan started. Scans of
// different devices never contend.
//
// The table of devices has its own lock, taken only to look up or insert a
// record and never held while waiting on a device lock.
//
// # Counts
//
// NotScanned (-1) means "never scanned, being scanned, or failed". Any other
// count is the number of faulty occurrences found by the last completed scan.
//
// # Usage
//
//	store := device.NewCounterStore()
//
//	guard, err := store.BeginWrite("device-a")
//	if err != nil {
//	    return err
//	}
//	defer guard.Release()
//	guard.SetCount(3)
//
//	// elsewhere
//	n := store.ReadCount("device-a")
package device
