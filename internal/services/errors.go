package services

import "errors"

// Agent bridge failure modes. Dispatch and poll never mutate workflow state
// on these, so callers may retry the same operation.
var (
	// ErrGatewayUnavailable covers network failures and 5xx responses
	// from the agent bridge.
	ErrGatewayUnavailable = errors.New("agent bridge unavailable")
	// ErrGatewayRejected covers 4xx responses: the bridge understood the
	// request and refused it.
	ErrGatewayRejected = errors.New("agent bridge rejected request")
	// ErrUnknownTask means the bridge does not know the polled task
	// handle. Reconciliation treats it as a stale handle and ignores it.
	ErrUnknownTask = errors.New("unknown task handle")
)
