// Package browser opens URLs in the user's default browser, best-effort.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Open launches the platform's URL handler for the given URL. It does not
// wait for the browser to exit.
func Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
	return cmd.Start()
}
