// Package transport declares the P2P boundary the contributor core consumes:
// a reliable broadcast sender and a blocking receiver, keyed by BLS public
// key identity. Delivery, peer discovery, and wire framing below the
// Aggregation message itself are the transport implementation's concern,
// not the core's.
package transport

import (
	"context"

	"github.com/luxfi/contributor/pkg/bls"
)

// Recipients selects which peers a Send call targets. All is the only
// value the core ever uses.
type Recipients int

const (
	// All addresses every peer in the session, including the orchestrator.
	All Recipients = iota
)

// Sender reliably broadcasts encoded Aggregation messages.
type Sender interface {
	// Send delivers data to recipients and returns the public keys of
	// peers it reached. reliable is always true from the core's call
	// sites; a transport that cannot guarantee reliable delivery must
	// still honor the request or return an error.
	Send(ctx context.Context, recipients Recipients, data []byte, reliable bool) ([]*bls.PublicKey, error)
}

// Receiver yields the next inbound message, blocking until one arrives.
type Receiver interface {
	// Recv returns the sender's authenticated public key and the raw
	// message bytes. An error signals the transport has closed; the
	// round loop treats that as a clean shutdown, not a failure.
	Recv(ctx context.Context) (*bls.PublicKey, []byte, error)
}
