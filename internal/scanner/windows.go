//go:build windows

package scanner

import (
	"bufio"
	"bytes"
	"os/exec"
	"strconv"
	"strings"
)

type windowsScanner struct{}

func newPlatformScanner() Scanner {
	return &windowsScanner{}
}

func (s *windowsScanner) Scan() ([]Listener, error) {
	cmd := exec.Command("netstat", "-ano", "-p", "TCP")
	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	return s.enrichWithProcessNames(parseNetstat(output)), nil
}

// enrichWithProcessNames fills in process names via tasklist; netstat only
// reports PIDs.
func (s *windowsScanner) enrichWithProcessNames(listeners []Listener) []Listener {
	cmd := exec.Command("tasklist", "/FO", "CSV", "/NH")
	output, err := cmd.Output()
	if err != nil {
		return listeners
	}

	pidToName := make(map[int]string)
	sc := bufio.NewScanner(bytes.NewReader(output))
	for sc.Scan() {
		// CSV format: "process.exe","1234","Console","1","10,000 K"
		fields := strings.Split(sc.Text(), ",")
		if len(fields) < 2 {
			continue
		}
		name := strings.Trim(fields[0], "\"")
		pid, _ := strconv.Atoi(strings.Trim(fields[1], "\""))
		pidToName[pid] = name
	}

	for i := range listeners {
		if name, ok := pidToName[listeners[i].PID]; ok {
			listeners[i].Process = name
		}
	}

	return listeners
}

func (s *windowsScanner) Kill(pid int, force bool) error {
	args := []string{"/PID", strconv.Itoa(pid)}
	if force {
		args = append(args, "/F")
	}

	return exec.Command("taskkill", args...).Run()
}
