// Command contributor-node is the CLI for a BLS threshold contributor:
// keygen prints a fresh keypair, run loads a node config and constructs
// the node, and simulate drives one round over an in-memory mesh. There
// is no built-in P2P transport, so run exits with an error once the node
// has been constructed instead of driving a round loop.
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/luxfi/contributor/internal/contributor"
	"github.com/luxfi/contributor/internal/nettest"
	"github.com/luxfi/contributor/pkg/bls"
	"github.com/luxfi/contributor/pkg/transport"
	"github.com/luxfi/contributor/pkg/validator/counter"
	"github.com/luxfi/contributor/pkg/wire"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "contributor-node",
		Short: "Run a BLS threshold contributor node",
		Long: `contributor-node drives a single contributor's round-driven signing
and aggregation state machine against a configured membership set.`,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Boot a node from a config file",
		Long:  `Load a node config and construct the node. No P2P transport is built in, so the command then exits with an error saying so.`,
		RunE:  runNode,
	}

	keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Generate a contributor BLS keypair",
		Long:  `Generate a fresh BN254 BLS keypair and print the base64 private key, G2 public key, and G1 public key.`,
		RunE:  runKeygen,
	}

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Run a local multi-node aggregation simulation",
		Long:  `Spin up an orchestrator and N contributors wired by an in-memory mesh, run a single round to completion, and print the aggregate.`,
		RunE:  runSimulate,
	}

	parties   int
	threshold int
	round     uint64
	count     uint64
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "node config YAML file (required)")
	runCmd.MarkFlagRequired("config")

	simulateCmd.Flags().IntVarP(&parties, "parties", "n", 4, "number of contributors")
	simulateCmd.Flags().IntVarP(&threshold, "threshold", "t", 3, "aggregation threshold")
	simulateCmd.Flags().Uint64Var(&round, "round", 1, "round number to simulate")
	simulateCmd.Flags().Uint64Var(&count, "count", 1, "counter task value to sign")

	rootCmd.AddCommand(runCmd, keygenCmd, simulateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *logrus.Entry {
	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(log)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	sk, err := bls.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("contributor-node: generate key: %w", err)
	}
	fmt.Printf("signer:       %s\n", base64.StdEncoding.EncodeToString(sk.Bytes()))
	fmt.Printf("public (G2):  %s\n", base64.StdEncoding.EncodeToString(sk.PublicKey().Bytes()))
	fmt.Printf("public (G1):  %s\n", base64.StdEncoding.EncodeToString(sk.G1PublicKey().Bytes()))
	return nil
}

func runNode(cmd *cobra.Command, args []string) error {
	cfg, err := loadNodeConfig(configFile)
	if err != nil {
		return err
	}

	nodeCfg, err := cfg.build()
	if err != nil {
		return err
	}
	nodeCfg.Log = newLogger()

	if _, err := contributor.New(nodeCfg); err != nil {
		return fmt.Errorf("contributor-node: construct node: %w", err)
	}

	return fmt.Errorf("contributor-node: real P2P transport is not implemented; " +
		"use 'contributor-node simulate' for a local in-memory run, or embed this " +
		"module and supply a transport.Sender/Receiver pair programmatically")
}

// runSimulate wires `parties` contributors onto an in-memory mesh
// (internal/nettest), has a local orchestrator broadcast a single Start
// for one counter task, and runs every contributor's round loop
// concurrently until the single aggregating contributor (contributor 0)
// has collected threshold partials and produced an aggregate.
func runSimulate(cmd *cobra.Command, args []string) error {
	if threshold < 1 || threshold > parties {
		return fmt.Errorf("contributor-node: threshold %d out of range [1,%d]", threshold, parties)
	}

	orchSK, err := bls.GeneratePrivateKey()
	if err != nil {
		return fmt.Errorf("contributor-node: generate orchestrator key: %w", err)
	}
	orchestrator := orchSK.PublicKey()

	memberSKs := make([]*bls.PrivateKey, parties)
	members := make([]*bls.PublicKey, parties)
	g1 := make(map[string]*bls.G1PublicKey, parties)
	for i := 0; i < parties; i++ {
		sk, err := bls.GeneratePrivateKey()
		if err != nil {
			return fmt.Errorf("contributor-node: generate member %d key: %w", i, err)
		}
		memberSKs[i] = sk
		members[i] = sk.PublicKey()
		g1[string(sk.PublicKey().Bytes())] = sk.G1PublicKey()
	}

	mesh := nettest.NewMesh()
	defer mesh.Close()

	orchEndpoint := mesh.Join(orchestrator)
	nodes := make([]*contributor.Node, parties)
	endpoints := make([]*nettest.Endpoint, parties)
	for i := 0; i < parties; i++ {
		endpoints[i] = mesh.Join(members[i])
		var agg *contributor.AggregationInput
		if i == 0 {
			agg = &contributor.AggregationInput{
				Threshold: threshold,
				G1Keys:    g1,
			}
		}
		node, err := contributor.New(contributor.Config{
			Orchestrator: orchestrator,
			Signer:       memberSKs[i],
			Members:      members,
			Validator:    counter.New(),
			Aggregation:  agg,
			Log:          newLogger().WithField("contributor", i),
		})
		if err != nil {
			return fmt.Errorf("contributor-node: construct contributor %d: %w", i, err)
		}
		nodes[i] = node
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan contributor.AggregationEvent, parties)
	done := make(chan error, parties)
	for i := 0; i < parties; i++ {
		i := i
		go func() {
			done <- nodes[i].Run(ctx, endpoints[i], endpoints[i], func(e contributor.AggregationEvent) {
				events <- e
			})
		}()
	}

	start := &wire.Aggregation{
		Round:    round,
		Metadata: counter.EncodeMetadata(counter.Task{Count: count}),
		Payload:  wire.StartPayload(),
	}
	encoded, err := wire.Encode(start)
	if err != nil {
		return fmt.Errorf("contributor-node: encode start: %w", err)
	}
	if _, err := orchEndpoint.Send(ctx, transport.All, encoded, true); err != nil {
		return fmt.Errorf("contributor-node: broadcast start: %w", err)
	}

	select {
	case e := <-events:
		fmt.Printf("aggregated round %d: %d contributors, signature=%s\n",
			e.Round, len(e.Participating), base64.StdEncoding.EncodeToString(e.AggregateSig.Bytes()))
	case err := <-done:
		if err != nil {
			return fmt.Errorf("contributor-node: simulation aborted: %w", err)
		}
		return fmt.Errorf("contributor-node: round loop closed before aggregation completed")
	}

	return nil
}
