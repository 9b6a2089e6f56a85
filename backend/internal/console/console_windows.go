//go:build windows

package console

import (
	"log"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procGetConsoleWindow      = kernel32.NewProc("GetConsoleWindow")
	procAllocConsole          = kernel32.NewProc("AllocConsole")
	procFreeConsole           = kernel32.NewProc("FreeConsole")
	procSetConsoleCtrlHandler = kernel32.NewProc("SetConsoleCtrlHandler")
)

const (
	ctrlCEvent     = 0
	ctrlBreakEvent = 1
)

// IsRunningFromConsole reports whether the program runs from a terminal.
//
// A console build double clicked in Explorer gets a console window it does
// not need, the window is freed and false is returned. A GUI build started
// from a terminal gets a console of its own with the standard streams
// redirected to it.
func IsRunningFromConsole() bool {
	fromExplorer := launchedFromExplorer()

	if hasConsoleWindow() {
		if fromExplorer {
			procFreeConsole.Call()
			return false
		}
		return true
	}
	if fromExplorer {
		return false
	}

	// a separate console rather than AttachConsole, sharing the parent's
	// input confuses both processes
	procAllocConsole.Call()
	redirectStdStreams()
	return true
}

func hasConsoleWindow() bool {
	hwnd, _, _ := procGetConsoleWindow.Call()
	return hwnd != 0
}

func redirectStdStreams() {
	stdout, err := windows.GetStdHandle(windows.STD_OUTPUT_HANDLE)
	if err != nil || stdout == 0 {
		return
	}
	stderr, err := windows.GetStdHandle(windows.STD_ERROR_HANDLE)
	if err != nil || stderr == 0 {
		return
	}
	os.Stdout = os.NewFile(uintptr(stdout), "/dev/stdout")
	os.Stderr = os.NewFile(uintptr(stderr), "/dev/stderr")
	if stdin, err := windows.GetStdHandle(windows.STD_INPUT_HANDLE); err == nil && stdin != 0 {
		os.Stdin = os.NewFile(uintptr(stdin), "/dev/stdin")
	}
	log.SetOutput(os.Stderr)
}

// launchedFromExplorer looks up the parent process in a process snapshot.
func launchedFromExplorer() bool {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return false
	}
	defer windows.CloseHandle(snap)

	exe := make(map[uint32]string)
	parents := make(map[uint32]uint32)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	for err = windows.Process32First(snap, &entry); err == nil; err = windows.Process32Next(snap, &entry) {
		exe[entry.ProcessID] = windows.UTF16ToString(entry.ExeFile[:])
		parents[entry.ProcessID] = entry.ParentProcessID
	}

	parent, ok := parents[windows.GetCurrentProcessId()]
	if !ok {
		return false
	}
	return isExplorer(exe[parent])
}

var handler struct {
	once     sync.Once
	shutdown chan struct{}
	callback uintptr
}

// SetupConsoleHandler installs a console control handler closing shutdown on
// Ctrl+C or Ctrl+Break. SDL installs its own handler during init, the
// returned function installs ours again and must be called after that.
func SetupConsoleHandler(shutdown chan struct{}) func() {
	handler.shutdown = shutdown
	handler.callback = windows.NewCallback(func(ctrlType uint32) uintptr {
		if ctrlType != ctrlCEvent && ctrlType != ctrlBreakEvent {
			return 0
		}
		handler.once.Do(func() { close(handler.shutdown) })
		return 1
	})

	register := func() {
		if ret, _, _ := procSetConsoleCtrlHandler.Call(handler.callback, 1); ret == 0 {
			log.Printf("Warning: Failed to set Windows console control handler")
		}
	}
	register()
	return register
}
