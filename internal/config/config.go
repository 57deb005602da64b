// Package config holds the tool configuration: the fixed local ports, the
// canister and contract identifiers, and the wait budgets used by the
// bootstrap sequence. Values come from built-in defaults, optionally
// overridden by a fusion.yaml in the project root.
package config

import (
	"fmt"
	"regexp"
	"time"
)

// EVMConfig describes the local EVM test node (anvil).
type EVMConfig struct {
	// RPCPort is the TCP port the node listens on. The port reconciliation
	// step clears this port before every launch.
	RPCPort int `yaml:"rpc_port"`

	// RPCURL is the HTTP JSON-RPC endpoint derived from RPCPort. Forge and
	// the readiness probe both use it.
	RPCURL string `yaml:"rpc_url"`

	// SlotsInEpoch is passed to anvil as --slots-in-an-epoch. A single slot
	// per epoch makes blocks final immediately, which the coprocessor relies
	// on during local iteration.
	SlotsInEpoch int `yaml:"slots_in_epoch"`

	// ChainID is the expected chain id of the local node.
	ChainID uint64 `yaml:"chain_id"`
}

// ReplicaConfig describes the local ICP replica managed by dfx.
type ReplicaConfig struct {
	Port         int    `yaml:"port"`
	WebserverURL string `yaml:"webserver_url"`
}

// CanisterConfig describes the coprocessor canister and its build artifact.
type CanisterConfig struct {
	// Name is the canister name known to dfx (dfx.json).
	Name string `yaml:"name"`

	// RPCBridge is the pre-built EVM RPC canister deployed alongside it.
	RPCBridge string `yaml:"rpc_bridge"`

	// CargoPackage is the workspace package compiled to wasm.
	CargoPackage string `yaml:"cargo_package"`

	// WasmPath is where cargo leaves the release artifact.
	WasmPath string `yaml:"wasm_path"`

	// CreateCycles is the cycle budget for canister creation. Kept as a
	// string because dfx accepts underscore-grouped digits.
	CreateCycles string `yaml:"create_cycles"`

	// FabricateICP is the fabricated ICP amount credited to the identity's
	// wallet before anything is deployed.
	FabricateICP uint64 `yaml:"fabricate_icp"`

	// SrcDir is the canister source tree watched by `fusion watch`.
	SrcDir string `yaml:"src_dir"`
}

// ContractsConfig describes the Solidity side and how forge deploys it.
type ContractsConfig struct {
	// Dir is the foundry project directory, used as the working directory
	// for forge.
	Dir string `yaml:"dir"`

	// Script is the forge script target (path:contract).
	Script string `yaml:"script"`

	// RunSignature is the entry function invoked with the canister's
	// derived EVM address.
	RunSignature string `yaml:"run_signature"`

	// CoprocessorAddress is the address the Coprocessor contract deploys to
	// on a fresh local node. Local deployment is deterministic, so the
	// canister can hardcode this as its log filter address.
	CoprocessorAddress string `yaml:"coprocessor_address"`
}

// WaitConfig carries the wait budgets of the bootstrap sequence. Settle
// delays mirror the historical script behavior; the timeouts bound the
// readiness polls layered on top of them.
type WaitConfig struct {
	// KillSettle is how long to let sockets release after terminating a
	// stale listener.
	KillSettle Duration `yaml:"kill_settle"`

	// ReplicaSettle separates `dfx stop` from the clean restart.
	ReplicaSettle Duration `yaml:"replica_settle"`

	// AddressDelay is the initial wait before the first derived-address
	// query; key generation takes a few seconds after install.
	AddressDelay Duration `yaml:"address_delay"`

	// PollInterval spaces readiness and address polls.
	PollInterval Duration `yaml:"poll_interval"`

	// ReadyTimeout bounds every poll loop.
	ReadyTimeout Duration `yaml:"ready_timeout"`
}

// Config is the root configuration object.
type Config struct {
	EVM       EVMConfig       `yaml:"evm"`
	Replica   ReplicaConfig   `yaml:"replica"`
	Canister  CanisterConfig  `yaml:"canister"`
	Contracts ContractsConfig `yaml:"contracts"`
	Waits     WaitConfig      `yaml:"waits"`
}

// Default returns the configuration matching the starter project layout.
func Default() *Config {
	return &Config{
		EVM: EVMConfig{
			RPCPort:      8545,
			RPCURL:       "http://127.0.0.1:8545",
			SlotsInEpoch: 1,
			ChainID:      31337,
		},
		Replica: ReplicaConfig{
			Port:         4943,
			WebserverURL: "http://127.0.0.1:4943",
		},
		Canister: CanisterConfig{
			Name:         "chain_fusion",
			RPCBridge:    "evm_rpc",
			CargoPackage: "chain_fusion",
			WasmPath:     "target/wasm32-unknown-unknown/release/chain_fusion.wasm",
			CreateCycles: "10_000_000_000_000",
			FabricateICP: 10000,
			SrcDir:       "src/chain_fusion",
		},
		Contracts: ContractsConfig{
			Dir:                "contracts",
			Script:             "script/Coprocessor.s.sol:CoprocessorScript",
			RunSignature:       "run(address)",
			CoprocessorAddress: "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		},
		Waits: WaitConfig{
			KillSettle:    Duration(3 * time.Second),
			ReplicaSettle: Duration(3 * time.Second),
			AddressDelay:  Duration(10 * time.Second),
			PollInterval:  Duration(1 * time.Second),
			ReadyTimeout:  Duration(30 * time.Second),
		},
	}
}

var cyclesPattern = regexp.MustCompile(`^[0-9][0-9_]*$`)

// Validate checks the configuration for values the bootstrap sequence cannot
// work with.
func (c *Config) Validate() error {
	if c.EVM.RPCPort < 1 || c.EVM.RPCPort > 65535 {
		return fmt.Errorf("evm.rpc_port %d out of range", c.EVM.RPCPort)
	}
	if c.Replica.Port < 1 || c.Replica.Port > 65535 {
		return fmt.Errorf("replica.port %d out of range", c.Replica.Port)
	}
	if c.EVM.RPCPort == c.Replica.Port {
		return fmt.Errorf("evm.rpc_port and replica.port both set to %d", c.EVM.RPCPort)
	}
	if c.EVM.SlotsInEpoch < 1 {
		return fmt.Errorf("evm.slots_in_epoch must be at least 1, got %d", c.EVM.SlotsInEpoch)
	}
	if c.EVM.RPCURL == "" {
		return fmt.Errorf("evm.rpc_url is required")
	}
	if c.Canister.Name == "" || c.Canister.RPCBridge == "" {
		return fmt.Errorf("canister.name and canister.rpc_bridge are required")
	}
	if c.Canister.CargoPackage == "" {
		return fmt.Errorf("canister.cargo_package is required")
	}
	if c.Canister.WasmPath == "" {
		return fmt.Errorf("canister.wasm_path is required")
	}
	if !cyclesPattern.MatchString(c.Canister.CreateCycles) {
		return fmt.Errorf("canister.create_cycles %q is not a cycle amount", c.Canister.CreateCycles)
	}
	if c.Canister.FabricateICP == 0 {
		return fmt.Errorf("canister.fabricate_icp must be positive")
	}
	if c.Contracts.Script == "" || c.Contracts.RunSignature == "" {
		return fmt.Errorf("contracts.script and contracts.run_signature are required")
	}
	if c.Waits.PollInterval.Std() <= 0 {
		return fmt.Errorf("waits.poll_interval must be positive")
	}
	if c.Waits.ReadyTimeout.Std() <= 0 {
		return fmt.Errorf("waits.ready_timeout must be positive")
	}
	return nil
}
