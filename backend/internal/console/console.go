// Package console deals with the console of the process. On Windows the
// program may be started from a terminal or by a double click in Explorer,
// only the former wants a console window. Ctrl+C also needs a console control
// handler there, SDL replaces the one the Go runtime installs.
package console

import "strings"

// baseName returns the last element of a Windows or slash separated path.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}

func isExplorer(path string) bool {
	return strings.EqualFold(baseName(path), "explorer.exe")
}
