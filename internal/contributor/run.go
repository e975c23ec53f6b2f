package contributor

import (
	"context"
	"errors"
	"io"

	"github.com/luxfi/contributor/pkg/transport"
	"github.com/luxfi/contributor/pkg/wire"
)

// Run drives the round loop: repeatedly receive a message, decode it,
// dispatch it to the signing path or the aggregation path based on the
// sender's identity and the payload variant, and invoke onAggregation for
// every completed aggregation.
//
// Run processes messages strictly in receive order and returns nil once
// the receiver reports the transport closed (io.EOF or any other recv
// error). It returns a non-nil, wrapped error only for fatal conditions:
// an invalid orchestrator task, a broadcast failure, or an
// aggregate-verify failure after individually-verified inputs.
func (n *Node) Run(ctx context.Context, sender transport.Sender, receiver transport.Receiver, onAggregation func(AggregationEvent)) error {
	sess := newSession()

	for {
		from, raw, err := receiver.Recv(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				n.log.Info("transport closed, round loop terminating")
				return nil
			}
			n.log.WithError(err).Info("transport closed, round loop terminating")
			return nil
		}

		msg, err := wire.Decode(raw)
		if err != nil {
			n.log.WithError(err).Info("dropping malformed message")
			continue
		}

		if n.members.IsOrchestrator(from) {
			if !msg.Payload.IsStart() {
				continue
			}
			event, err := n.handleStart(ctx, sess, sender, msg, raw)
			if err != nil {
				return err
			}
			if event != nil && onAggregation != nil {
				onAggregation(*event)
			}
			continue
		}

		if _, isSig := msg.Payload.AsSignature(); !isSig {
			continue
		}
		event, err := n.handlePeerSignature(sess, from, msg, raw)
		if err != nil {
			return err
		}
		if event != nil && onAggregation != nil {
			onAggregation(*event)
		}
	}
}
