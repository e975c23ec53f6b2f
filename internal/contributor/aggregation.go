package contributor

import (
	"fmt"

	"github.com/luxfi/contributor/pkg/bls"
	"github.com/luxfi/contributor/pkg/store"
	"github.com/luxfi/contributor/pkg/wire"
)

// handlePeerSignature implements the aggregation path: on a
// peer-originated Signature message, authenticate the sender, validate the
// payload, verify the partial, accumulate it, and — the moment the
// threshold is first reached — aggregate and verify the combined
// signature, emitting an AggregationEvent.
//
// Every failure up to and including the threshold check is a drop: it
// logs and returns (nil, nil). Only an aggregate-verify failure after
// individually-verified inputs is fatal, since that can only indicate a
// logic bug.
func (n *Node) handlePeerSignature(sess *session, sender *bls.PublicKey, msg *wire.Aggregation, raw []byte) (*AggregationEvent, error) {
	if n.aggregation == nil {
		// Non-aggregator nodes silently ignore peer partials.
		return nil, nil
	}

	round := msg.Round
	log := n.log.WithField("round", round)

	senderIndex, ok := n.members.IndexOf(sender)
	if !ok {
		log.Info("dropping signature from unknown sender")
		return nil, nil
	}

	if !sess.partials.HasRound(round) {
		log.Info("dropping signature for round with no observed start")
		return nil, nil
	}

	sigBytes, ok := msg.Payload.AsSignature()
	if !ok {
		log.Info("dropping message with unexpected payload variant")
		return nil, nil
	}

	sig, err := bls.SignatureFromBytes(sigBytes)
	if err != nil {
		log.WithField("contributor_index", senderIndex).Info("dropping malformed signature bytes")
		return nil, nil
	}

	payload, err := n.canonicalHash(sess, round, raw)
	if err != nil {
		log.WithField("contributor_index", senderIndex).Info("dropping signature that failed validation")
		return nil, nil
	}

	ok, err = bls.Verify(sender, payload, sig)
	if err != nil || !ok {
		log.WithField("contributor_index", senderIndex).Info("dropping signature with invalid partial")
		return nil, nil
	}

	if outcome := sess.partials.Insert(round, senderIndex, sender, sig); outcome == store.Duplicate {
		log.WithField("contributor_index", senderIndex).Info("dropping duplicate signature")
		return nil, nil
	}

	return n.maybeAggregate(sess, round, payload)
}

// maybeAggregate fires aggregate exactly once per round: the instant
// count(round) first reaches threshold, whether that crossing happens on
// this node's own self-insertion (handleStart) or on a later peer partial
// (handlePeerSignature). Every subsequent call for the same round,
// however the count keeps growing, is a no-op.
func (n *Node) maybeAggregate(sess *session, round uint64, payload []byte) (*AggregationEvent, error) {
	if _, done := sess.aggregated[round]; done {
		return nil, nil
	}
	if sess.partials.Count(round) < n.aggregation.Threshold {
		n.log.WithFields(map[string]interface{}{
			"round":     round,
			"count":     sess.partials.Count(round),
			"threshold": n.aggregation.Threshold,
		}).Info("awaiting more partials")
		return nil, nil
	}
	event, err := n.aggregate(sess, round, payload)
	if err != nil || event == nil {
		return event, err
	}
	sess.aggregated[round] = struct{}{}
	return event, nil
}

// aggregate walks the stored partials for round in ascending member-index
// order, aggregates their signatures, and verifies the result.
func (n *Node) aggregate(sess *session, round uint64, payload []byte) (*AggregationEvent, error) {
	entries := sess.partials.IterByIndex(round)

	participating := make([]*bls.PublicKey, 0, len(entries))
	sigs := make([]*bls.Signature, 0, len(entries))
	for _, e := range entries {
		participating = append(participating, e.Key)
		sigs = append(sigs, e.Signature)
	}

	agg, err := bls.AggregateSignatures(sigs)
	if err != nil {
		n.log.WithField("round", round).Info("dropping aggregation attempt: failed to aggregate signatures")
		return nil, nil
	}

	ok, err := bls.AggregateVerify(participating, payload, agg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAggregateVerifyFailed, err)
	}
	if !ok {
		return nil, ErrAggregateVerifyFailed
	}

	n.log.WithFields(map[string]interface{}{
		"round":         round,
		"participating": len(participating),
	}).Info("aggregated signatures")

	return &AggregationEvent{
		Round:         round,
		Payload:       payload,
		Participating: participating,
		AggregateSig:  agg,
	}, nil
}
