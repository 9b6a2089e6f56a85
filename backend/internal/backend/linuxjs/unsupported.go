//go:build !linux

package linuxjs

import (
	"errors"

	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/joystick"
	"github.com/soar/padinput/backend/internal/mapping"
	"github.com/soar/padinput/backend/internal/rawevent"
)

// ErrUnsupported is returned by Start on systems without the Linux joystick
// interface.
var ErrUnsupported = errors.New("linuxjs: only available on linux")

// Backend is a placeholder outside linux.
type Backend struct {
	Dir       string
	SysDir    string
	IsGamepad func(mapping.GUID) bool
}

func New() *Backend { return &Backend{} }

func (b *Backend) Start() error                      { return ErrUnsupported }
func (b *Backend) Poll() (rawevent.Event, bool)      { return rawevent.Event{}, false }
func (b *Backend) Close() error                      { return nil }
func (b *Backend) Open(int) (joystick.Device, error) { return nil, ErrUnsupported }

func (b *Backend) OpenController(int) (gamepad.Controller, error) { return nil, ErrUnsupported }
