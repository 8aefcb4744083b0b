package auth

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openBrowser launches the default browser at url. Failure is not fatal;
// login falls back to printing the URL.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/C", "start", "", url)
	default:
		return fmt.Errorf("unsupported platform %s for automatic browser launch", runtime.GOOS)
	}
	return cmd.Run()
}
