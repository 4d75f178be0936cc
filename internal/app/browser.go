package app

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openBrowser opens url in the user's default browser. Best effort: callers
// log the URL either way so manual authorization always remains possible.
// Variable so tests can run the wiring without spawning a browser.
var openBrowser = func(url string) error {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	default:
		return fmt.Errorf("app: no browser launcher for %s", runtime.GOOS)
	}
}
