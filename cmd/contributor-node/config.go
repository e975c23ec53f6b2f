package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/luxfi/contributor/internal/contributor"
	"github.com/luxfi/contributor/pkg/bls"
	"github.com/luxfi/contributor/pkg/validator"
	"github.com/luxfi/contributor/pkg/validator/counter"
	"gopkg.in/yaml.v3"
)

// nodeConfig is the on-disk YAML shape for a contributor node: own key
// material, the fixed membership set, and an optional aggregation block.
// Key material is base64-encoded the way lss/config.marshal.go encodes
// ECDSA shares, adapted here for BN254 G1/G2 points.
type nodeConfig struct {
	Signer       string             `yaml:"signer"`
	Orchestrator string             `yaml:"orchestrator"`
	Members      []string           `yaml:"members"`
	Aggregation  *aggregationConfig `yaml:"aggregation,omitempty"`
}

type aggregationConfig struct {
	Threshold int               `yaml:"threshold"`
	G1Keys    map[string]string `yaml:"g1_keys"`
}

// loadNodeConfig reads and decodes a YAML node config from path.
func loadNodeConfig(path string) (*nodeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("contributor-node: read config %s: %w", path, err)
	}
	var cfg nodeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("contributor-node: decode config %s: %w", path, err)
	}
	return &cfg, nil
}

// build resolves the base64 key material in cfg into a contributor.Config.
// The validator is always the counter demonstration validator: this CLI
// only ever runs the one task type shipped with the module.
func (cfg *nodeConfig) build() (contributor.Config, error) {
	signerBytes, err := base64.StdEncoding.DecodeString(cfg.Signer)
	if err != nil {
		return contributor.Config{}, fmt.Errorf("contributor-node: decode signer: %w", err)
	}
	signer, err := bls.PrivateKeyFromBytes(signerBytes)
	if err != nil {
		return contributor.Config{}, fmt.Errorf("contributor-node: parse signer: %w", err)
	}

	orchBytes, err := base64.StdEncoding.DecodeString(cfg.Orchestrator)
	if err != nil {
		return contributor.Config{}, fmt.Errorf("contributor-node: decode orchestrator key: %w", err)
	}
	orchestrator, err := bls.PublicKeyFromBytes(orchBytes)
	if err != nil {
		return contributor.Config{}, fmt.Errorf("contributor-node: parse orchestrator key: %w", err)
	}

	members := make([]*bls.PublicKey, 0, len(cfg.Members))
	for i, m := range cfg.Members {
		b, err := base64.StdEncoding.DecodeString(m)
		if err != nil {
			return contributor.Config{}, fmt.Errorf("contributor-node: decode member %d: %w", i, err)
		}
		pk, err := bls.PublicKeyFromBytes(b)
		if err != nil {
			return contributor.Config{}, fmt.Errorf("contributor-node: parse member %d: %w", i, err)
		}
		members = append(members, pk)
	}

	var agg *contributor.AggregationInput
	if cfg.Aggregation != nil {
		g1 := make(map[string]*bls.G1PublicKey, len(cfg.Aggregation.G1Keys))
		for memberB64, keyB64 := range cfg.Aggregation.G1Keys {
			memberBytes, err := base64.StdEncoding.DecodeString(memberB64)
			if err != nil {
				return contributor.Config{}, fmt.Errorf("contributor-node: decode g1_keys member: %w", err)
			}
			keyBytes, err := base64.StdEncoding.DecodeString(keyB64)
			if err != nil {
				return contributor.Config{}, fmt.Errorf("contributor-node: decode g1_keys value: %w", err)
			}
			g1Key, err := bls.G1PublicKeyFromBytes(keyBytes)
			if err != nil {
				return contributor.Config{}, fmt.Errorf("contributor-node: parse g1_keys value: %w", err)
			}
			g1[string(memberBytes)] = g1Key
		}
		agg = &contributor.AggregationInput{
			Threshold: cfg.Aggregation.Threshold,
			G1Keys:    g1,
		}
	}

	return contributor.Config{
		Orchestrator: orchestrator,
		Signer:       signer,
		Members:      members,
		Validator:    defaultValidator(),
		Aggregation:  agg,
	}, nil
}

func defaultValidator() validator.Validator {
	return counter.New()
}
