package console

import (
	"testing"

	"github.com/soar/padinput/backend/internal/test"
)

func TestIsExplorer(t *testing.T) {
	for _, c := range []struct {
		path string
		want bool
	}{
		{`C:\Windows\explorer.exe`, true},
		{`C:\WINDOWS\EXPLORER.EXE`, true},
		{"explorer.exe", true},
		{`C:\Windows\System32\cmd.exe`, false},
		{"/usr/bin/explorer.exe.sh", false},
		{"", false},
	} {
		test.ExpectEquality(t, isExplorer(c.path), c.want, c.path)
	}
}
