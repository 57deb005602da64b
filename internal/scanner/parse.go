package scanner

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// addrPattern splits the lsof NAME column, e.g. "127.0.0.1:8545", "*:4943"
// or "[::1]:8545". NAME can carry a trailing " (LISTEN)".
var addrPattern = regexp.MustCompile(`^(\*|\[?[^\]]+\]?):(\d+)`)

// parseLsof reads `lsof -iTCP -sTCP:LISTEN -P -n` output. The column layout
// is COMMAND PID USER FD TYPE DEVICE SIZE/OFF NODE NAME.
func parseLsof(output []byte) []Listener {
	var listeners []Listener
	seen := make(map[string]bool)

	sc := bufio.NewScanner(bytes.NewReader(output))
	// Skip header
	sc.Scan()

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 9 {
			continue
		}

		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}

		matches := addrPattern.FindStringSubmatch(fields[8])
		if matches == nil {
			continue
		}
		port, err := strconv.Atoi(matches[2])
		if err != nil {
			continue
		}

		key := strconv.Itoa(port) + ":" + strconv.Itoa(pid)
		if seen[key] {
			continue
		}
		seen[key] = true

		listeners = append(listeners, Listener{
			Port:    port,
			PID:     pid,
			Process: unescapeProcessName(fields[0]),
			User:    fields[2],
			Address: matches[1],
		})
	}

	return listeners
}

// unescapeProcessName undoes lsof's hex escaping of command names, e.g.
// "Code\x20Helper" -> "Code Helper".
func unescapeProcessName(name string) string {
	result := strings.ReplaceAll(name, "\\x20", " ")
	result = strings.ReplaceAll(result, "\\x2d", "-")
	return result
}

var (
	ssPIDPattern  = regexp.MustCompile(`pid=(\d+)`)
	ssProcPattern = regexp.MustCompile(`"([^"]+)"`)
)

// parseSS reads `ss -tlnp` output:
// State Recv-Q Send-Q Local-Address:Port Peer-Address:Port Process
// LISTEN 0 128 127.0.0.1:8545 0.0.0.0:* users:(("anvil",pid=1234,fd=3))
func parseSS(output []byte) []Listener {
	var listeners []Listener
	seen := make(map[string]bool)

	sc := bufio.NewScanner(bytes.NewReader(output))
	// Skip header
	sc.Scan()

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 {
			continue
		}

		localAddr := fields[3]
		lastColon := strings.LastIndex(localAddr, ":")
		if lastColon == -1 {
			continue
		}
		address := localAddr[:lastColon]
		port, err := strconv.Atoi(localAddr[lastColon+1:])
		if err != nil {
			continue
		}

		var pid int
		var process string
		if len(fields) >= 6 {
			if m := ssPIDPattern.FindStringSubmatch(fields[5]); m != nil {
				pid, _ = strconv.Atoi(m[1])
			}
			if m := ssProcPattern.FindStringSubmatch(fields[5]); m != nil {
				process = m[1]
			}
		}

		key := strconv.Itoa(port) + ":" + strconv.Itoa(pid)
		if seen[key] {
			continue
		}
		seen[key] = true

		listeners = append(listeners, Listener{
			Port:    port,
			PID:     pid,
			Process: process,
			// ss does not report the owning user in this mode.
			Address: address,
		})
	}

	return listeners
}

// parseNetstat reads `netstat -ano -p TCP` output:
// Proto Local-Address Foreign-Address State PID
// TCP 0.0.0.0:8545 0.0.0.0:0 LISTENING 1234
func parseNetstat(output []byte) []Listener {
	var listeners []Listener
	seen := make(map[string]bool)

	sc := bufio.NewScanner(bytes.NewReader(output))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.Contains(line, "LISTENING") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}

		localAddr := fields[1]
		pid, _ := strconv.Atoi(fields[4])

		lastColon := strings.LastIndex(localAddr, ":")
		if lastColon == -1 {
			continue
		}
		address := localAddr[:lastColon]
		port, err := strconv.Atoi(localAddr[lastColon+1:])
		if err != nil {
			continue
		}

		key := strconv.Itoa(port) + ":" + strconv.Itoa(pid)
		if seen[key] {
			continue
		}
		seen[key] = true

		listeners = append(listeners, Listener{
			Port:    port,
			PID:     pid,
			Address: address,
		})
	}

	return listeners
}
