// Package validator declares the task-payload boundary the contributor core
// delegates to: turning a raw, encoded Aggregation message into the exact
// byte string that must be signed and verified. The core never interprets
// task semantics itself; it only calls CanonicalHash.
package validator

// Validator canonicalises a raw encoded Aggregation message into the bytes
// that are signed by contributors and verified by the aggregator.
// Implementations must be deterministic (same input, same output) and pure
// (no side effects observable by the core).
type Validator interface {
	// CanonicalHash returns the canonical payload for raw, or an error if
	// raw does not describe a valid task for this validator.
	CanonicalHash(raw []byte) ([]byte, error)
}
