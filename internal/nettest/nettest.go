// Package nettest provides an in-memory mesh implementing pkg/transport,
// adapted from the handler-pumping network harness pattern used to drive
// multi-party protocol tests, for driving contributor-node end-to-end
// tests without a real P2P stack.
package nettest

import (
	"context"
	"io"
	"sync"

	"github.com/luxfi/contributor/pkg/bls"
	"github.com/luxfi/contributor/pkg/transport"
)

var (
	_ transport.Sender   = (*Endpoint)(nil)
	_ transport.Receiver = (*Endpoint)(nil)
)

type inbound struct {
	from *bls.PublicKey
	data []byte
}

// Mesh is a fully-connected set of in-process endpoints keyed by BLS
// public key identity.
type Mesh struct {
	mu    sync.Mutex
	peers map[string]*Endpoint
}

// NewMesh returns an empty mesh.
func NewMesh() *Mesh {
	return &Mesh{peers: make(map[string]*Endpoint)}
}

// Join registers key on the mesh and returns the Sender/Receiver pair it
// should use.
func (m *Mesh) Join(key *bls.PublicKey) *Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	ep := &Endpoint{
		mesh:  m,
		self:  key,
		inbox: make(chan inbound, 64),
	}
	m.peers[string(key.Bytes())] = ep
	return ep
}

// Close shuts down every endpoint's inbox, causing their next Recv to
// return io.EOF, mirroring a transport closing cleanly.
func (m *Mesh) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ep := range m.peers {
		close(ep.inbox)
	}
}

// Deliver injects a message as if it had arrived from sender, without it
// passing through a Send call. Useful for tests that want to simulate an
// orchestrator or a peer outside the mesh's own membership.
func (m *Mesh) Deliver(to *bls.PublicKey, from *bls.PublicKey, data []byte) {
	m.mu.Lock()
	ep, ok := m.peers[string(to.Bytes())]
	m.mu.Unlock()
	if !ok {
		return
	}
	ep.inbox <- inbound{from: from, data: data}
}

// Endpoint is one participant's view of the Mesh, implementing both
// transport.Sender and transport.Receiver.
type Endpoint struct {
	mesh  *Mesh
	self  *bls.PublicKey
	inbox chan inbound
}

// Send broadcasts data to every other peer currently joined to the mesh.
func (e *Endpoint) Send(ctx context.Context, _ transport.Recipients, data []byte, _ bool) ([]*bls.PublicKey, error) {
	e.mesh.mu.Lock()
	defer e.mesh.mu.Unlock()

	var reached []*bls.PublicKey
	for key, ep := range e.mesh.peers {
		if key == string(e.self.Bytes()) {
			continue
		}
		select {
		case ep.inbox <- inbound{from: e.self, data: data}:
			reached = append(reached, ep.self)
		case <-ctx.Done():
			return reached, ctx.Err()
		}
	}
	return reached, nil
}

// Recv blocks for the next inbound message, or returns io.EOF once the
// mesh has been closed.
func (e *Endpoint) Recv(ctx context.Context) (*bls.PublicKey, []byte, error) {
	select {
	case msg, ok := <-e.inbox:
		if !ok {
			return nil, nil, io.EOF
		}
		return msg.from, msg.data, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}
