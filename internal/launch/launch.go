// Package launch opens URLs in the system browser.
package launch

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener opens a URL outside the terminal. Components take an Opener so tests
// can record the URL instead of launching a browser.
type Opener func(rawURL string) error

// Browser opens rawURL with the platform's default handler.
func Browser(rawURL string) error {
	name, args, err := command(runtime.GOOS, rawURL)
	if err != nil {
		return err
	}
	return exec.Command(name, args...).Start()
}

func command(goos, rawURL string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{rawURL}, nil
	case "darwin":
		return "open", []string{rawURL}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", rawURL}, nil
	default:
		return "", nil, fmt.Errorf("unsupported OS for browser open: %s", goos)
	}
}
