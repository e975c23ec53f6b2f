// Package counter implements the validator.Validator interface for the
// "counter" demonstration task: metadata carries an 8-byte big-endian
// counter value, and the canonical payload is a blake3 digest binding the
// round number to that counter so a partial signature can never be replayed
// against a different round or a different count.
package counter

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/contributor/pkg/wire"
	"github.com/zeebo/blake3"
)

// Task is the task-specific payload carried in an Aggregation message's
// metadata field for the counter use case.
type Task struct {
	Count uint64
}

// EncodeMetadata serializes a Task to the bytes stored in Aggregation.Metadata.
func EncodeMetadata(t Task) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, t.Count)
	return b
}

// DecodeMetadata parses Aggregation.Metadata back into a Task.
func DecodeMetadata(b []byte) (Task, error) {
	if len(b) != 8 {
		return Task{}, fmt.Errorf("counter: metadata must be 8 bytes, got %d", len(b))
	}
	return Task{Count: binary.BigEndian.Uint64(b)}, nil
}

// Validator canonicalises counter tasks.
type Validator struct{}

// New constructs a counter task Validator.
func New() *Validator {
	return &Validator{}
}

// CanonicalHash decodes raw as an Aggregation message, validates its
// metadata as a counter Task, and returns blake3(round || count).
func (v *Validator) CanonicalHash(raw []byte) ([]byte, error) {
	msg, err := wire.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("counter: decode aggregation: %w", err)
	}
	task, err := DecodeMetadata(msg.Metadata)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], msg.Round)
	binary.BigEndian.PutUint64(buf[8:], task.Count)

	digest := blake3.Sum256(buf)
	return digest[:], nil
}
