package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrEmptyExecutable is returned when no executable name is configured.
var ErrEmptyExecutable = errors.New("empty executable name")

// Resolve locates the backend executable.
//
// Names containing a path separator are used as given. Bare names are
// looked up next to the running host binary first, both as name and as
// name-GOOS-GOARCH (the per-platform sidecar naming), then on PATH.
// On Windows the .exe suffix is implied.
func Resolve(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyExecutable
	}

	if strings.ContainsAny(name, `/\`) {
		path, err := filepath.Abs(name)
		if err != nil {
			return "", err
		}
		if err := checkExecutable(path); err != nil {
			return "", err
		}
		return path, nil
	}

	if self, err := os.Executable(); err == nil {
		dir := filepath.Dir(self)
		for _, candidate := range sidecarNames(name) {
			path := filepath.Join(dir, candidate)
			if checkExecutable(path) == nil {
				return path, nil
			}
		}
	}

	return exec.LookPath(name)
}

// sidecarNames lists the file names tried next to the host binary.
func sidecarNames(name string) []string {
	suffix := ""
	if runtime.GOOS == "windows" && !strings.EqualFold(filepath.Ext(name), ".exe") {
		suffix = ".exe"
	}
	return []string{
		name + suffix,
		fmt.Sprintf("%s-%s-%s%s", name, runtime.GOOS, runtime.GOARCH, suffix),
	}
}

// checkExecutable verifies path names a regular file that can be executed.
func checkExecutable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && fi.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}
