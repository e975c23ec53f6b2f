package contributor

import "errors"

// ErrInvalidOrchestratorTask is returned by Run when the orchestrator's
// Start message fails validation. The orchestrator is trusted to submit
// valid tasks, so this aborts the round loop rather than being dropped.
var ErrInvalidOrchestratorTask = errors.New("contributor: orchestrator start message failed validation")

// ErrBroadcastFailed is returned by Run when broadcasting this node's own
// partial signature fails.
var ErrBroadcastFailed = errors.New("contributor: broadcast of partial signature failed")

// ErrAggregateVerifyFailed is returned by Run when an aggregate signature
// fails verification after every individual partial was already verified.
// This can only happen due to a programming error in the aggregation or
// verification logic, so it is treated as fatal rather than a drop.
var ErrAggregateVerifyFailed = errors.New("contributor: aggregate signature failed verification after individual verifies succeeded")
