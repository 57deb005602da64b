package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"
)

// launchdJob is the subset of a launchd job definition needed to decide
// whether killing a listener will just get it restarted.
type launchdJob struct {
	Label            string      `plist:"Label"`
	Program          string      `plist:"Program"`
	ProgramArguments []string    `plist:"ProgramArguments"`
	KeepAlive        interface{} `plist:"KeepAlive"`
}

func (j launchdJob) executable() string {
	prog := j.Program
	if prog == "" && len(j.ProgramArguments) > 0 {
		prog = j.ProgramArguments[0]
	}
	if prog == "" {
		return ""
	}
	return filepath.Base(prog)
}

// keptAlive reports whether launchd restarts the job on exit. KeepAlive is
// either a bool or a dictionary of restart conditions.
func (j launchdJob) keptAlive() bool {
	switch v := j.KeepAlive.(type) {
	case bool:
		return v
	case map[string]interface{}:
		return len(v) > 0
	default:
		return false
	}
}

// loadJobs parses every job plist under dirs. Unreadable or malformed files
// are skipped.
func loadJobs(dirs ...string) []launchdJob {
	var jobs []launchdJob
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".plist") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				continue
			}
			var job launchdJob
			if _, err := plist.Unmarshal(data, &job); err != nil {
				continue
			}
			if job.Label != "" {
				jobs = append(jobs, job)
			}
		}
	}
	return jobs
}

// jobManaging returns the label of a kept-alive job whose program matches
// the process name.
func jobManaging(jobs []launchdJob, process string) (string, bool) {
	for _, j := range jobs {
		if !j.keptAlive() {
			continue
		}
		if j.executable() == process {
			return j.Label, true
		}
	}
	return "", false
}
