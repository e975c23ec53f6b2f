package contributor_test

import (
	"context"
	"testing"

	"github.com/luxfi/contributor/internal/contributor"
	"github.com/luxfi/contributor/pkg/bls"
	"github.com/luxfi/contributor/pkg/transport"
	"github.com/luxfi/contributor/pkg/validator/counter"
	"github.com/luxfi/contributor/pkg/wire"
	"github.com/stretchr/testify/require"
)

// fakeReceiver replays a fixed script of (sender, bytes) pairs, then
// reports the transport closed.
type fakeReceiver struct {
	script []scriptedMsg
	pos    int
}

type scriptedMsg struct {
	from *bls.PublicKey
	data []byte
}

func (r *fakeReceiver) Recv(ctx context.Context) (*bls.PublicKey, []byte, error) {
	if r.pos >= len(r.script) {
		return nil, nil, errClosed
	}
	m := r.script[r.pos]
	r.pos++
	return m.from, m.data, nil
}

var errClosed = context.Canceled

// fakeSender records every broadcast Aggregation message it is asked to send.
type fakeSender struct {
	sent []*wire.Aggregation
}

func (s *fakeSender) Send(ctx context.Context, _ transport.Recipients, data []byte, _ bool) ([]*bls.PublicKey, error) {
	msg, err := wire.Decode(data)
	if err != nil {
		return nil, err
	}
	s.sent = append(s.sent, msg)
	return nil, nil
}

type harness struct {
	orchestratorKey *bls.PublicKey
	selfKey         *bls.PublicKey
	selfSK          *bls.PrivateKey
	memberKeys      []*bls.PublicKey
	memberSKs       []*bls.PrivateKey
}

func newHarness(t *testing.T, n int) *harness {
	t.Helper()
	orchSK, err := bls.GeneratePrivateKey()
	require.NoError(t, err)

	h := &harness{orchestratorKey: orchSK.PublicKey()}
	for i := 0; i < n; i++ {
		sk, err := bls.GeneratePrivateKey()
		require.NoError(t, err)
		h.memberSKs = append(h.memberSKs, sk)
		h.memberKeys = append(h.memberKeys, sk.PublicKey())
	}
	h.selfSK = h.memberSKs[0]
	h.selfKey = h.memberKeys[0]
	return h
}

func startMsg(t *testing.T, round uint64, count uint64) []byte {
	t.Helper()
	msg := &wire.Aggregation{
		Round:    round,
		Metadata: counter.EncodeMetadata(counter.Task{Count: count}),
		Payload:  wire.StartPayload(),
	}
	b, err := wire.Encode(msg)
	require.NoError(t, err)
	return b
}

func signatureMsg(t *testing.T, round uint64, count uint64, sk *bls.PrivateKey) []byte {
	t.Helper()
	raw := startMsg(t, round, count)
	v := counter.New()
	payload, err := v.CanonicalHash(raw)
	require.NoError(t, err)
	sig, err := sk.Sign(payload)
	require.NoError(t, err)

	msg := &wire.Aggregation{
		Round:    round,
		Metadata: counter.EncodeMetadata(counter.Task{Count: count}),
		Payload:  wire.SignaturePayload(sig.Bytes()),
	}
	b, err := wire.Encode(msg)
	require.NoError(t, err)
	return b
}

func newAggregatorNode(t *testing.T, h *harness, threshold int) *contributor.Node {
	t.Helper()
	g1 := make(map[string]*bls.G1PublicKey)
	for _, sk := range h.memberSKs {
		g1[string(sk.PublicKey().Bytes())] = sk.G1PublicKey()
	}
	node, err := contributor.New(contributor.Config{
		Orchestrator: h.orchestratorKey,
		Signer:       h.selfSK,
		Members:      h.memberKeys,
		Validator:    counter.New(),
		Aggregation: &contributor.AggregationInput{
			Threshold: threshold,
			G1Keys:    g1,
		},
	})
	require.NoError(t, err)
	return node
}

// S1 — Happy path: Start, then two peer partials reach threshold 3
// (including self), producing exactly one aggregation event.
func TestHappyPath(t *testing.T) {
	h := newHarness(t, 4)
	node := newAggregatorNode(t, h, 3)

	receiver := &fakeReceiver{script: []scriptedMsg{
		{from: h.orchestratorKey, data: startMsg(t, 7, 100)},
		{from: h.memberKeys[1], data: signatureMsg(t, 7, 100, h.memberSKs[1])},
		{from: h.memberKeys[2], data: signatureMsg(t, 7, 100, h.memberSKs[2])},
	}}
	sender := &fakeSender{}

	var events []contributor.AggregationEvent
	err := node.Run(context.Background(), sender, receiver, func(e contributor.AggregationEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	sig, ok := sender.sent[0].Payload.AsSignature()
	require.True(t, ok)
	require.NotEmpty(t, sig)

	require.Len(t, events, 1)
	require.Equal(t, uint64(7), events[0].Round)
	require.Len(t, events[0].Participating, 3)

	ok2, err := bls.AggregateVerify(events[0].Participating, events[0].Payload, events[0].AggregateSig)
	require.NoError(t, err)
	require.True(t, ok2)
}

// S2 — Duplicate partial: a replay of an already-stored partial changes nothing.
func TestDuplicatePartialIsDropped(t *testing.T) {
	h := newHarness(t, 4)
	node := newAggregatorNode(t, h, 3)

	receiver := &fakeReceiver{script: []scriptedMsg{
		{from: h.orchestratorKey, data: startMsg(t, 7, 100)},
		{from: h.memberKeys[1], data: signatureMsg(t, 7, 100, h.memberSKs[1])},
		{from: h.memberKeys[1], data: signatureMsg(t, 7, 100, h.memberSKs[1])}, // replay
		{from: h.memberKeys[2], data: signatureMsg(t, 7, 100, h.memberSKs[2])},
	}}
	sender := &fakeSender{}

	var events []contributor.AggregationEvent
	err := node.Run(context.Background(), sender, receiver, func(e contributor.AggregationEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, events[0].Participating, 3)
}

// S3 — Unknown sender: self still broadcasts; no aggregation; unknown peer's
// partial is never stored.
func TestUnknownSenderIsDropped(t *testing.T) {
	h := newHarness(t, 4)
	node := newAggregatorNode(t, h, 3)

	stranger, err := bls.GeneratePrivateKey()
	require.NoError(t, err)

	receiver := &fakeReceiver{script: []scriptedMsg{
		{from: h.orchestratorKey, data: startMsg(t, 7, 100)},
		{from: stranger.PublicKey(), data: signatureMsg(t, 7, 100, stranger)},
	}}
	sender := &fakeSender{}

	var events []contributor.AggregationEvent
	err = node.Run(context.Background(), sender, receiver, func(e contributor.AggregationEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	require.Empty(t, events)
}

// S4 — Start replay: exactly one outbound signature for the round.
func TestStartReplayIsDropped(t *testing.T) {
	h := newHarness(t, 4)
	node := newAggregatorNode(t, h, 3)

	receiver := &fakeReceiver{script: []scriptedMsg{
		{from: h.orchestratorKey, data: startMsg(t, 7, 100)},
		{from: h.orchestratorKey, data: startMsg(t, 7, 100)},
	}}
	sender := &fakeSender{}

	err := node.Run(context.Background(), sender, receiver, nil)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
}

// S5 — Spoofed Start: a non-orchestrator sending Start triggers nothing.
func TestSpoofedStartIsDropped(t *testing.T) {
	h := newHarness(t, 4)
	node := newAggregatorNode(t, h, 3)

	receiver := &fakeReceiver{script: []scriptedMsg{
		{from: h.memberKeys[1], data: startMsg(t, 7, 100)},
	}}
	sender := &fakeSender{}

	err := node.Run(context.Background(), sender, receiver, nil)
	require.NoError(t, err)
	require.Empty(t, sender.sent)
}

// S6 — Below threshold: own partial broadcast, no aggregation event yet.
func TestBelowThresholdNoAggregation(t *testing.T) {
	h := newHarness(t, 4)
	node := newAggregatorNode(t, h, 3)

	receiver := &fakeReceiver{script: []scriptedMsg{
		{from: h.orchestratorKey, data: startMsg(t, 7, 100)},
		{from: h.memberKeys[1], data: signatureMsg(t, 7, 100, h.memberSKs[1])},
	}}
	sender := &fakeSender{}

	var events []contributor.AggregationEvent
	err := node.Run(context.Background(), sender, receiver, func(e contributor.AggregationEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	require.Empty(t, events)
}

// Non-aggregator nodes ignore peer partials entirely but still self-sign.
func TestNonAggregatorIgnoresPeerPartials(t *testing.T) {
	h := newHarness(t, 4)
	node, err := contributor.New(contributor.Config{
		Orchestrator: h.orchestratorKey,
		Signer:       h.selfSK,
		Members:      h.memberKeys,
		Validator:    counter.New(),
	})
	require.NoError(t, err)

	receiver := &fakeReceiver{script: []scriptedMsg{
		{from: h.orchestratorKey, data: startMsg(t, 7, 100)},
		{from: h.memberKeys[1], data: signatureMsg(t, 7, 100, h.memberSKs[1])},
		{from: h.memberKeys[2], data: signatureMsg(t, 7, 100, h.memberSKs[2])},
	}}
	sender := &fakeSender{}

	err = node.Run(context.Background(), sender, receiver, func(contributor.AggregationEvent) {
		t.Fatal("non-aggregator must never emit an aggregation event")
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
}

// Threshold = 1 aggregates immediately on the node's own self-signature;
// a later peer partial for the same round triggers no second aggregation.
func TestThresholdOneAggregatesOnFirstPartial(t *testing.T) {
	h := newHarness(t, 3)
	node := newAggregatorNode(t, h, 1)

	receiver := &fakeReceiver{script: []scriptedMsg{
		{from: h.orchestratorKey, data: startMsg(t, 1, 1)},
		{from: h.memberKeys[1], data: signatureMsg(t, 1, 1, h.memberSKs[1])},
	}}
	sender := &fakeSender{}

	var events []contributor.AggregationEvent
	err := node.Run(context.Background(), sender, receiver, func(e contributor.AggregationEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)
	// Own partial triggers aggregation before the peer message even arrives;
	// the peer partial after threshold is already met is stored, but the
	// round is already aggregated, so no second event is emitted.
	require.Len(t, events, 1)
}

// Recv error (transport closed) after any prefix of valid input resolves
// Run successfully with no panic.
func TestRunReturnsCleanlyOnTransportClose(t *testing.T) {
	h := newHarness(t, 3)
	node := newAggregatorNode(t, h, 2)

	receiver := &fakeReceiver{script: []scriptedMsg{
		{from: h.orchestratorKey, data: startMsg(t, 1, 1)},
	}}
	sender := &fakeSender{}

	require.NotPanics(t, func() {
		err := node.Run(context.Background(), sender, receiver, nil)
		require.NoError(t, err)
	})
}

// An invalid orchestrator task aborts Run with a fatal, wrapped error.
func TestInvalidOrchestratorTaskIsFatal(t *testing.T) {
	h := newHarness(t, 3)
	node := newAggregatorNode(t, h, 2)

	badRaw, err := wire.Encode(&wire.Aggregation{
		Round:    1,
		Metadata: []byte("not-8-bytes"),
		Payload:  wire.StartPayload(),
	})
	require.NoError(t, err)

	receiver := &fakeReceiver{script: []scriptedMsg{
		{from: h.orchestratorKey, data: badRaw},
	}}
	sender := &fakeSender{}

	err = node.Run(context.Background(), sender, receiver, nil)
	require.ErrorIs(t, err, contributor.ErrInvalidOrchestratorTask)
}
