package contributor

import (
	"context"
	"fmt"

	"github.com/luxfi/contributor/pkg/transport"
	"github.com/luxfi/contributor/pkg/wire"
)

// handleStart implements the signing path: on an orchestrator-originated
// Start for a round this node has not yet signed, validate the task,
// sign it, store the own partial, and broadcast it to every peer
// including the orchestrator.
//
// Preconditions (sender == orchestrator, payload is Start) are checked by
// the caller in run.go. A non-nil error here is always fatal and aborts Run.
//
// When this node also carries an aggregation block, the self-insertion is
// threshold-checked exactly like a peer partial would be: with
// threshold == 1, aggregation fires immediately on this node's own
// signature.
func (n *Node) handleStart(ctx context.Context, sess *session, sender transport.Sender, msg *wire.Aggregation, raw []byte) (*AggregationEvent, error) {
	round := msg.Round

	if _, already := sess.signedRounds[round]; already {
		n.log.WithField("round", round).Info("already signed at round, dropping replayed start")
		return nil, nil
	}

	payload, err := n.canonicalHash(sess, round, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrchestratorTask, err)
	}

	sig, err := n.signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("contributor: sign round %d: %w", round, err)
	}

	sess.partials.Insert(round, n.selfIndex, n.self, sig)
	sess.signedRounds[round] = struct{}{}

	out := &wire.Aggregation{
		Round:    round,
		Metadata: msg.Metadata,
		Payload:  wire.SignaturePayload(sig.Bytes()),
	}
	encoded, err := wire.Encode(out)
	if err != nil {
		return nil, fmt.Errorf("contributor: encode signature for round %d: %w", round, err)
	}

	if _, err := sender.Send(ctx, transport.All, encoded, true); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBroadcastFailed, err)
	}

	n.log.WithField("round", round).Info("broadcast partial signature")

	if n.aggregation == nil {
		return nil, nil
	}
	return n.maybeAggregate(sess, round, payload)
}
