//go:build darwin

package scanner

import (
	"os"
	"path/filepath"
)

// RespawnRisk reports whether process is managed by a kept-alive launchd
// job, returning the job label. Killing such a listener frees the port only
// until launchd restarts it.
func RespawnRisk(process string) (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}

	jobs := loadJobs(
		filepath.Join(home, "Library", "LaunchAgents"),
		"/Library/LaunchAgents",
		"/Library/LaunchDaemons",
	)
	return jobManaging(jobs, process)
}
