// Package safeexec resolves and builds external commands without the
// faccessat2 syscall that exec.LookPath uses on Linux. Some hardened or
// containerized hosts this portal gets deployed on filter that syscall
// via seccomp, turning a simple lookup into a SIGSYS crash; plain Stat
// calls are safe everywhere.
package safeexec

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// LookPath finds an executable in PATH using only Stat-based checks.
// It is a drop-in replacement for exec.LookPath.
func LookPath(file string) (string, error) {
	if strings.Contains(file, string(filepath.Separator)) {
		if isExecutable(file) {
			return file, nil
		}
		return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
	}

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
}

// Command builds an exec.Cmd with the executable path pre-resolved via
// LookPath, so exec.Command never needs its own PATH search.
func Command(name string, arg ...string) *exec.Cmd {
	if path, err := LookPath(name); err == nil {
		return exec.Command(path, arg...)
	}
	// Unresolvable name: let the standard machinery produce the error
	return exec.Command(name, arg...)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode()&0111 != 0
}
