// Package evmaddr parses the threshold-ECDSA derived EVM address out of
// canister query replies and validates it.
package evmaddr

import (
	"fmt"
	"regexp"
	"strings"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Extract pulls the first double-quoted value out of a candid reply such as
//
//	(opt "0x5FbDB2315678afecb367f032d93F642f64180aa3")
//
// and validates it as an EVM address. A reply without a quoted value (the
// address is still being generated) or with a malformed value is an error;
// callers poll on it.
func Extract(reply string) (string, error) {
	first := strings.IndexByte(reply, '"')
	if first == -1 {
		return "", fmt.Errorf("no quoted value in reply %.80q", strings.TrimSpace(reply))
	}
	rest := reply[first+1:]
	second := strings.IndexByte(rest, '"')
	if second == -1 {
		return "", fmt.Errorf("unterminated quote in reply %.80q", strings.TrimSpace(reply))
	}

	addr := rest[:second]
	if err := Validate(addr); err != nil {
		return "", err
	}
	return addr, nil
}

// Validate enforces the 0x-prefixed 20-byte hex form.
func Validate(addr string) error {
	if !addressPattern.MatchString(addr) {
		return fmt.Errorf("%q is not an EVM address", addr)
	}
	return nil
}
