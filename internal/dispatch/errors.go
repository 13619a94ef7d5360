package dispatch

import "errors"

// ErrUsage is returned by ParseArgs for any malformed command line.
var ErrUsage = errors.New("dispatch: usage")
