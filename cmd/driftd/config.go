package main

import (
	"os"
	"sort"

	"github.com/driftchain/driftchain/core/ledger"
	"github.com/driftchain/driftchain/core/state"
	"github.com/driftchain/driftchain/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// chainSpec is the yaml chain specification driftd boots from.
type chainSpec struct {
	// UpgradeDelay is the number of blocks between scheduling a runtime
	// upgrade and its activation.
	UpgradeDelay uint64 `yaml:"upgradeDelay"`

	EnableRuntimeCalls     bool   `yaml:"enableRuntimeCalls"`
	EnableNonRootCalls     bool   `yaml:"enableNonRootCalls"`
	EnableBalanceTransfers bool   `yaml:"enableBalanceTransfers"`
	ConfirmationDepth      uint64 `yaml:"confirmationDepth"`

	// Alloc maps hex addresses to decimal balances.
	Alloc map[string]string `yaml:"alloc"`
}

func defaultChainSpec() *chainSpec {
	return &chainSpec{
		UpgradeDelay:           5,
		EnableRuntimeCalls:     true,
		EnableNonRootCalls:     false,
		EnableBalanceTransfers: true,
		ConfirmationDepth:      100,
	}
}

func loadChainSpec(path string) (*chainSpec, error) {
	if path == "" {
		return defaultChainSpec(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read chain spec")
	}
	spec := defaultChainSpec()
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, errors.Wrap(err, "parse chain spec")
	}
	return spec, nil
}

// genesisState converts the spec's alloc into sorted genesis entries.
func (s *chainSpec) genesisState() ([]state.KeyValue, error) {
	alloc := make(map[common.Address]*uint256.Int, len(s.Alloc))
	addrs := make([]string, 0, len(s.Alloc))
	for addr := range s.Alloc {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	for _, addr := range addrs {
		if !common.IsHexAddress(addr) {
			return nil, errors.Errorf("invalid alloc address %q", addr)
		}
		balance, err := uint256.FromDecimal(s.Alloc[addr])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid alloc balance for %s", addr)
		}
		alloc[common.HexToAddress(addr)] = balance
	}
	return ledger.GenesisState(alloc, s.EnableBalanceTransfers), nil
}

func (s *chainSpec) registryGenesis() registry.GenesisConfig {
	return registry.GenesisConfig{
		EnableRuntimeCalls:     s.EnableRuntimeCalls,
		EnableNonRootCalls:     s.EnableNonRootCalls,
		EnableBalanceTransfers: s.EnableBalanceTransfers,
		ConfirmationDepth:      s.ConfirmationDepth,
	}
}
