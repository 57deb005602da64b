//go:build darwin

package scanner

import (
	"os/exec"
)

type darwinScanner struct {
	unixKiller
}

func newPlatformScanner() Scanner {
	return &darwinScanner{}
}

func (s *darwinScanner) Scan() ([]Listener, error) {
	// +c 0 disables command name truncation.
	cmd := exec.Command("lsof", "-iTCP", "-sTCP:LISTEN", "-P", "-n", "+c", "0")
	output, err := cmd.Output()
	if err != nil {
		// lsof exits 1 when nothing matched.
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return []Listener{}, nil
		}
		return nil, err
	}

	return parseLsof(output), nil
}
