// Package contributor implements the round-driven signing and aggregation
// state machine described by the contributor node specification: a
// single-threaded message loop that authenticates inbound Aggregation
// messages against a fixed membership set, signs orchestrator-announced
// rounds exactly once, and — on the node designated as aggregator —
// collects, verifies, and aggregates peer partials once a threshold of
// distinct contributors is reached.
package contributor

import (
	"fmt"
	"sync"

	"github.com/luxfi/contributor/pkg/bls"
	"github.com/luxfi/contributor/pkg/membership"
	"github.com/luxfi/contributor/pkg/store"
	"github.com/luxfi/contributor/pkg/validator"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// AggregationInput configures the optional aggregator role. At most one
// contributor in a session carries this.
type AggregationInput struct {
	// Threshold is the minimum number of distinct contributor partials
	// required before aggregation is attempted, 1 <= Threshold <= n.
	Threshold int
	// G1Keys maps each member's G2 public key (by its compressed bytes)
	// to their G1 public key, for proof-of-possession style checks a
	// Validator may require. The core never reads this for its own
	// aggregate-verify equation, which operates on the G2 member keys.
	G1Keys map[string]*bls.G1PublicKey
}

// Config constructs a Node.
type Config struct {
	Orchestrator *bls.PublicKey
	Signer       *bls.PrivateKey
	Members      []*bls.PublicKey
	Validator    validator.Validator
	Aggregation  *AggregationInput
	Log          *logrus.Entry
}

// Node is a contributor's immutable identity and session configuration.
// It is constructed once and lives for exactly one Run invocation; all
// mutable session state is created fresh inside Run.
type Node struct {
	self         *bls.PublicKey
	signer       *bls.PrivateKey
	orchestrator *bls.PublicKey
	members      *membership.Index
	selfIndex    int
	validator    validator.Validator
	aggregation  *AggregationInput
	log          *logrus.Entry
}

// New validates cfg and constructs a Node.
func New(cfg Config) (*Node, error) {
	if cfg.Signer == nil {
		return nil, fmt.Errorf("contributor: signer is required")
	}
	if cfg.Validator == nil {
		return nil, fmt.Errorf("contributor: validator is required")
	}
	self := cfg.Signer.PublicKey()

	idx, selfIndex, err := membership.New(cfg.Orchestrator, cfg.Members, self)
	if err != nil {
		return nil, fmt.Errorf("contributor: %w", err)
	}

	if cfg.Aggregation != nil {
		if cfg.Aggregation.Threshold < 1 || cfg.Aggregation.Threshold > idx.Len() {
			return nil, fmt.Errorf("contributor: threshold %d out of range [1,%d]", cfg.Aggregation.Threshold, idx.Len())
		}
		for _, m := range idx.Members() {
			if _, ok := cfg.Aggregation.G1Keys[string(m.Bytes())]; !ok {
				return nil, fmt.Errorf("contributor: missing g1 public key for member")
			}
		}
	}

	log := cfg.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "contributor")

	return &Node{
		self:         self,
		signer:       cfg.Signer,
		orchestrator: cfg.Orchestrator,
		members:      idx,
		selfIndex:    selfIndex,
		validator:    cfg.Validator,
		aggregation:  cfg.Aggregation,
		log:          log,
	}, nil
}

// session holds the mutable state that exists only for the lifetime of
// one Run call: at-most-once own signing per round, the per-round
// partial signature store, and a memoized canonical hash per round so
// every partial for the same round shares one validator invocation
// instead of recomputing it once per contributor.
type session struct {
	signedRounds map[uint64]struct{}
	aggregated   map[uint64]struct{}
	partials     *store.Store

	hashMu    sync.Mutex
	hashCache map[uint64][]byte
	hashGroup singleflight.Group
}

func newSession() *session {
	return &session{
		signedRounds: make(map[uint64]struct{}),
		aggregated:   make(map[uint64]struct{}),
		partials:     store.New(),
		hashCache:    make(map[uint64][]byte),
	}
}

// canonicalHash returns validator.CanonicalHash(raw), memoized per round.
// Round and Metadata alone determine the canonical payload, so every
// contributor's partial for the same round resolves to the same cached
// digest rather than re-running the validator once per message.
// singleflight additionally collapses concurrent callers onto one
// in-flight computation, which matters if a future transport drives Run
// from more than one goroutine.
func (n *Node) canonicalHash(sess *session, round uint64, raw []byte) ([]byte, error) {
	sess.hashMu.Lock()
	if cached, ok := sess.hashCache[round]; ok {
		sess.hashMu.Unlock()
		return cached, nil
	}
	sess.hashMu.Unlock()

	key := fmt.Sprintf("%d", round)
	v, err, _ := sess.hashGroup.Do(key, func() (interface{}, error) {
		return n.validator.CanonicalHash(raw)
	})
	if err != nil {
		return nil, err
	}
	payload := v.([]byte)

	sess.hashMu.Lock()
	sess.hashCache[round] = payload
	sess.hashMu.Unlock()

	return payload, nil
}

// AggregationEvent is emitted once per round, the moment threshold
// distinct contributor partials have been collected and the aggregate
// signature verifies.
type AggregationEvent struct {
	Round         uint64
	Payload       []byte
	Participating []*bls.PublicKey
	AggregateSig  *bls.Signature
}
