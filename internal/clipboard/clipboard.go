// Package clipboard copies text to the system clipboard.
package clipboard

import (
	"fmt"
	"os/exec"
	"runtime"
)

// For testing - allows us to mock these functions
var (
	execCommand  = exec.Command
	execLookPath = exec.LookPath
	runtimeGOOS  = runtime.GOOS
)

// Copy places text on the clipboard, picking the platform tool:
// pbcopy on macOS, wl-copy or xclip on Linux.
func Copy(text string) error {
	switch runtimeGOOS {
	case "darwin":
		return pipeTo(text, "pbcopy")
	case "linux":
		if _, err := execLookPath("wl-copy"); err == nil {
			return pipeTo(text, "wl-copy")
		}
		if _, err := execLookPath("xclip"); err == nil {
			return pipeTo(text, "xclip", "-selection", "clipboard")
		}
		return fmt.Errorf("no clipboard tool found (tried wl-copy, xclip)")
	default:
		return fmt.Errorf("unsupported platform: %s", runtimeGOOS)
	}
}

func pipeTo(text string, name string, args ...string) error {
	cmd := execCommand(name, args...)
	pipe, err := cmd.StdinPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	if _, err := pipe.Write([]byte(text)); err != nil {
		return err
	}

	if err := pipe.Close(); err != nil {
		return err
	}

	return cmd.Wait()
}
