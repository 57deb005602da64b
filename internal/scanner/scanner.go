// Package scanner discovers which processes hold the local TCP ports the
// bootstrap needs (the EVM node's 8545, the replica's 4943) and terminates
// them. Discovery shells out to the platform's socket tools; termination
// escalates from SIGTERM to SIGKILL.
package scanner

// Listener is a process bound to a listening TCP port.
type Listener struct {
	Port    int    `json:"port"`
	PID     int    `json:"pid"`
	Process string `json:"process"`
	User    string `json:"user"`
	Address string `json:"address"`
}

// Scanner enumerates and terminates listeners. Implementations are
// platform-specific.
type Scanner interface {
	// Scan returns every listening TCP socket visible to the current user.
	Scan() ([]Listener, error)

	// Kill terminates pid. Without force it sends SIGTERM first and
	// escalates to SIGKILL if the process survives.
	Kill(pid int, force bool) error
}

// New returns the scanner for the current platform.
func New() Scanner {
	return newPlatformScanner()
}
