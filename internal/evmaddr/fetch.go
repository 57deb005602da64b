package evmaddr

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Method is the canister query that reports the derived address.
const Method = "get_evm_address"

// Querier performs a no-argument canister query. *dfx.Client satisfies it.
type Querier interface {
	CallQuery(ctx context.Context, canister, method string) (string, error)
}

// Fetch queries the canister once and parses the derived address.
func Fetch(ctx context.Context, q Querier, canister string) (string, error) {
	reply, err := q.CallQuery(ctx, canister, Method)
	if err != nil {
		return "", err
	}
	return Extract(reply)
}

// Await waits for key generation, then polls Fetch until the canister
// reports a valid address or timeout lapses. The initial delay covers the
// window right after install during which the query is known to be empty.
func Await(ctx context.Context, q Querier, canister string, delay, interval, timeout time.Duration) (string, error) {
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var addr string
	poll := func() error {
		var err error
		addr, err = Fetch(pollCtx, q, canister)
		return err
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(interval), pollCtx)
	if err := backoff.Retry(poll, b); err != nil {
		return "", fmt.Errorf("no EVM address from %s after %s: %w", canister, timeout, err)
	}
	return addr, nil
}
