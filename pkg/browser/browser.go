// Package browser opens ledger explorer links in the system browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Starter launches a detached command.
type Starter func(name string, args ...string) error

// Opener opens URLs with the platform's default handler.
type Opener struct {
	goos  string
	start Starter
}

// NewOpener creates an Opener for the current platform.
func NewOpener() *Opener {
	return &Opener{
		goos: runtime.GOOS,
		start: func(name string, args ...string) error {
			return exec.Command(name, args...).Start() // #nosec G204 -- URL validated before use
		},
	}
}

// Open opens the specified URL in the default browser.
// Only absolute http and https URLs are accepted.
func (o *Opener) Open(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https allowed)", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}
	target := parsed.String()

	switch o.goos {
	case "linux", "freebsd", "openbsd":
		return o.start("xdg-open", target)
	case "darwin":
		return o.start("open", target)
	case "windows":
		return o.start("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return fmt.Errorf("unsupported platform: %s", o.goos)
	}
}

// Open opens rawURL with a platform Opener.
func Open(rawURL string) error {
	return NewOpener().Open(rawURL)
}
