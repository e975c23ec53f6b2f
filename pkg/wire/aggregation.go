// Package wire implements the Aggregation message codec: the on-the-wire
// representation of a round announcement or partial signature exchanged
// between contributors.
package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// PayloadKind tags the variant carried by an Aggregation message.
type PayloadKind uint8

const (
	// PayloadUnknown marks an absent or unrecognised payload; such
	// messages are silently ignored by every handler.
	PayloadUnknown PayloadKind = iota
	// PayloadStart announces that a round should be signed.
	PayloadStart
	// PayloadSignature carries a contributor's partial BLS signature.
	PayloadSignature
)

// Payload is the tagged union carried by an Aggregation message.
type Payload struct {
	Kind      PayloadKind `cbor:"1,keyasint"`
	Signature []byte      `cbor:"2,keyasint,omitempty"`
}

// Aggregation is the wire message exchanged between the orchestrator,
// contributors, and the aggregator.
type Aggregation struct {
	Round    uint64   `cbor:"1,keyasint"`
	Metadata []byte   `cbor:"2,keyasint"`
	Payload  *Payload `cbor:"3,keyasint,omitempty"`
}

// StartPayload constructs a Start-variant payload.
func StartPayload() *Payload {
	return &Payload{Kind: PayloadStart}
}

// SignaturePayload constructs a Signature-variant payload over sig.
func SignaturePayload(sig []byte) *Payload {
	return &Payload{Kind: PayloadSignature, Signature: sig}
}

// IsStart reports whether the payload is the Start variant.
func (p *Payload) IsStart() bool {
	return p != nil && p.Kind == PayloadStart
}

// AsSignature returns the partial signature bytes and true if the payload
// is the Signature variant.
func (p *Payload) AsSignature() ([]byte, bool) {
	if p == nil || p.Kind != PayloadSignature {
		return nil, false
	}
	return p.Signature, true
}

// Encode serializes an Aggregation message to its canonical wire bytes.
func Encode(msg *Aggregation) ([]byte, error) {
	b, err := cbor.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("wire: encode aggregation: %w", err)
	}
	return b, nil
}

// Decode parses raw bytes into an Aggregation message. Any malformed input
// is reported as an error; callers on the peer-message path must treat this
// as a non-fatal drop.
func Decode(raw []byte) (*Aggregation, error) {
	var msg Aggregation
	if err := cbor.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("wire: decode aggregation: %w", err)
	}
	return &msg, nil
}
