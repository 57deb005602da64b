// Package anvil launches the local EVM test node and probes its JSON-RPC
// endpoint.
package anvil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/config"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/execx"
)

// DefaultPort is anvil's built-in listen port; the --port flag is only
// passed when the configuration deviates from it.
const DefaultPort = 8545

// Node manages one local anvil instance.
type Node struct {
	runner  execx.Runner
	log     *zap.Logger
	cfg     config.EVMConfig
	logPath string
	client  *http.Client
}

// New returns a Node. logPath receives the node's output; empty discards it.
func New(runner execx.Runner, log *zap.Logger, cfg config.EVMConfig, logPath string) *Node {
	return &Node{
		runner:  runner,
		log:     log,
		cfg:     cfg,
		logPath: logPath,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Start launches anvil detached and returns its PID. Blocks always reach
// finality after SlotsInEpoch slots; the starter keeps it at one so the
// coprocessor sees finalized logs immediately.
func (n *Node) Start(ctx context.Context) (int, error) {
	args := []string{"--slots-in-an-epoch", strconv.Itoa(n.cfg.SlotsInEpoch)}
	if n.cfg.RPCPort != DefaultPort {
		args = append(args, "--port", strconv.Itoa(n.cfg.RPCPort))
	}

	pid, err := n.runner.Start(ctx, execx.Command{
		Program: "anvil",
		Args:    args,
		LogPath: n.logPath,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to launch anvil: %w", err)
	}

	n.log.Info("launched anvil", zap.Int("pid", pid), zap.Int("port", n.cfg.RPCPort))
	return pid, nil
}

// WaitReady polls the RPC endpoint until the node answers, then verifies
// the chain id matches the configuration. A mismatch means some other node
// holds the port and is not retried.
func (n *Node) WaitReady(ctx context.Context, interval, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	probe := func() error {
		_, err := n.ClientVersion(waitCtx)
		return err
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(interval), waitCtx)
	if err := backoff.Retry(probe, b); err != nil {
		return fmt.Errorf("anvil not ready on %s after %s: %w", n.cfg.RPCURL, timeout, err)
	}

	chainID, err := n.ChainID(ctx)
	if err != nil {
		return err
	}
	if chainID != n.cfg.ChainID {
		return fmt.Errorf("node on %s reports chain id %d, expected %d", n.cfg.RPCURL, chainID, n.cfg.ChainID)
	}

	n.log.Debug("anvil ready", zap.Uint64("chain_id", chainID))
	return nil
}

// ClientVersion asks the node to identify itself, e.g. "anvil/v0.2.0".
func (n *Node) ClientVersion(ctx context.Context) (string, error) {
	raw, err := n.call(ctx, "web3_clientVersion")
	if err != nil {
		return "", err
	}
	var version string
	if err := json.Unmarshal(raw, &version); err != nil {
		return "", fmt.Errorf("malformed web3_clientVersion result: %w", err)
	}
	return version, nil
}

// ChainID queries eth_chainId and decodes the hex-quantity result.
func (n *Node) ChainID(ctx context.Context) (uint64, error) {
	raw, err := n.call(ctx, "eth_chainId")
	if err != nil {
		return 0, err
	}
	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		return 0, fmt.Errorf("malformed eth_chainId result: %w", err)
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(hex, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed chain id %q: %w", hex, err)
	}
	return id, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (n *Node) call(ctx context.Context, method string) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  []any{},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.RPCURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("malformed JSON-RPC response from %s: %w", n.cfg.RPCURL, err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("%s failed: %s (code %d)", method, decoded.Error.Message, decoded.Error.Code)
	}
	return decoded.Result, nil
}
