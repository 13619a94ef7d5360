// Package faultseq detects faulty sequences in a device's stage history.
//
// A faulty occurrence is a run of stage 2/3 events terminated by a stage 0
// event. Stage 1 cancels any candidacy. A stage 3 run only opens a
// candidacy through a following stage 2 if the device stayed in stage 3
// for at least MinStage3Dwell:
//
//	3 (t0) ... 2 (t0+5m or later) ... 3 ... 0   -> one occurrence
//	3 (t0) ... 2 (t0+100s)        ... 0         -> none
//	2 ... 3 ... 0                               -> one occurrence
//
// Observe is a pure transition function; Detector wraps it for callers that
// feed events one at a time. Events must be fed in log order.
package faultseq
