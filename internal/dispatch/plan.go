package dispatch

import (
	"fmt"
	"strconv"
)

// Pair is one device ID and the log file to scan for it.
type Pair struct {
	DeviceID string
	Path     string
}

// Plan is a parsed command line: how many workers to start and the pairs
// they share.
type Plan struct {
	Workers int
	Pairs   []Pair
}

// ParseArgs parses "<workers> <device-id> <log-file> [<device-id> <log-file> ...]".
//
// Every failure wraps ErrUsage. The worker count must be at least the number
// of pairs so each pair is scanned at least once.
func ParseArgs(args []string) (Plan, error) {
	if len(args) < 3 {
		return Plan{}, fmt.Errorf("%w: too few arguments", ErrUsage)
	}
	if len(args)%2 == 0 {
		return Plan{}, fmt.Errorf("%w: device ID and log file arguments must come in pairs", ErrUsage)
	}

	workers, err := strconv.Atoi(args[0])
	if err != nil {
		return Plan{}, fmt.Errorf("%w: invalid number of threads %q", ErrUsage, args[0])
	}

	pairs := make([]Pair, 0, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		pairs = append(pairs, Pair{DeviceID: args[i], Path: args[i+1]})
	}

	if workers < len(pairs) {
		return Plan{}, fmt.Errorf("%w: the number of threads (%d) must be at least the number of device ID/log file pairs (%d)",
			ErrUsage, workers, len(pairs))
	}

	return Plan{Workers: workers, Pairs: pairs}, nil
}

// Assignment returns the pair worker i scans. Workers beyond len(Pairs)
// wrap around, so some pairs are scanned more than once.
func (p Plan) Assignment(i int) Pair {
	return p.Pairs[i%len(p.Pairs)]
}
