//go:build !windows
// +build !windows

package catia

// The real automation backend needs the win32 COM runtime. On other
// platforms dialing fails and callers fall back to fakes or report the
// error; thread setup is a no-op so the daemon loop runs anywhere.

func initAutomation() error {
	return nil
}

func shutdownAutomation() {}

func attachObject(progID string) (Object, error) {
	return nil, ErrUnsupportedPlatform
}

func startObject(progID string) (Object, error) {
	return nil, ErrUnsupportedPlatform
}
