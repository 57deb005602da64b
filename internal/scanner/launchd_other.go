//go:build !darwin

package scanner

// RespawnRisk always reports no risk; launchd is a macOS concern.
func RespawnRisk(process string) (string, bool) {
	return "", false
}
