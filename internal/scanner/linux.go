//go:build linux

package scanner

import (
	"os/exec"
)

type linuxScanner struct {
	unixKiller
}

func newPlatformScanner() Scanner {
	return &linuxScanner{}
}

func (s *linuxScanner) Scan() ([]Listener, error) {
	cmd := exec.Command("lsof", "-iTCP", "-sTCP:LISTEN", "-P", "-n")
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return []Listener{}, nil
		}
		// lsof may not be installed; ss usually is.
		return s.scanWithSS()
	}

	return parseLsof(output), nil
}

func (s *linuxScanner) scanWithSS() ([]Listener, error) {
	cmd := exec.Command("ss", "-tlnp")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	return parseSS(output), nil
}
