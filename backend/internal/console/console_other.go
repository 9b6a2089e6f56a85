//go:build !windows

package console

// IsRunningFromConsole is always true outside Windows.
func IsRunningFromConsole() bool {
	return true
}

// SetupConsoleHandler does nothing outside Windows, os/signal is enough. The
// returned function does nothing either.
func SetupConsoleHandler(shutdown chan struct{}) func() {
	return func() {}
}
