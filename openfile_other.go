//go:build !windows

package main

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openFile opens path with its default application.
func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("opening files is not supported on %s", runtime.GOOS)
	}
	// The opener may stay around as long as the editor does.
	return cmd.Start()
}
