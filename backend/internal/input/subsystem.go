// Package input ties the device registries, the mapping database and the
// mapping engine together into a single Subsystem.
//
// A Subsystem owns all of its state. There is nothing package level, two
// Subsystems in the same process are completely independent. A Subsystem is
// not safe for concurrent use: events and queries must come from the same
// goroutine, or be serialized by the caller.
package input

import (
	"fmt"

	"github.com/soar/padinput/backend/internal/gamepad"
	"github.com/soar/padinput/backend/internal/joystick"
	"github.com/soar/padinput/backend/internal/mapping"
)

// Opener is the part of a backend the Subsystem needs to open devices.
type Opener interface {
	joystick.Opener
	gamepad.ControllerOpener
}

// Subsystem is the input normalization layer.
type Subsystem struct {
	db          *mapping.Database
	joysticks   *joystick.Registry
	controllers *gamepad.ControllerRegistry

	// Verbose enables a log line for every dispatched event
	Verbose bool
}

// New creates a Subsystem. If db is nil a database with only the built-in
// records is created.
func New(opener Opener, db *mapping.Database) *Subsystem {
	if db == nil {
		db = mapping.NewDatabase()
	}
	return &Subsystem{
		db:          db,
		joysticks:   joystick.NewRegistry(opener),
		controllers: gamepad.NewControllerRegistry(opener),
	}
}

// Database returns the mapping database used for queries.
func (s *Subsystem) Database() *mapping.Database {
	return s.db
}

// Joysticks returns the joystick registry.
func (s *Subsystem) Joysticks() *joystick.Registry {
	return s.joysticks
}

// Controllers returns the gamepad registry.
func (s *Subsystem) Controllers() *gamepad.ControllerRegistry {
	return s.controllers
}

// NumSlots is the number of joystick slots ever assigned. Every index below
// NumSlots is valid for queries.
func (s *Subsystem) NumSlots() int {
	return s.joysticks.Len()
}

// Close releases every open device handle.
func (s *Subsystem) Close() {
	s.controllers.Close()
	s.joysticks.Close()
}

// GetState returns the normalized state of the joystick in slot index.
func (s *Subsystem) GetState(index int) (gamepad.State, error) {
	snap, err := s.joysticks.Snapshot(index)
	if err != nil {
		return gamepad.State{}, err
	}
	slot, err := s.joysticks.Slot(index)
	if err != nil {
		return gamepad.State{}, err
	}
	return gamepad.Apply(snap, s.db.Lookup(slot.GUID)), nil
}

// GetCapabilities describes what the mapping of slot index provides.
func (s *Subsystem) GetCapabilities(index int) (gamepad.Capabilities, error) {
	snap, err := s.joysticks.Snapshot(index)
	if err != nil {
		return gamepad.Capabilities{}, err
	}
	slot, err := s.joysticks.Slot(index)
	if err != nil {
		return gamepad.Capabilities{}, err
	}
	return gamepad.CapabilitiesOf(s.db.Lookup(slot.GUID), snap.Connected), nil
}

// GetName returns the device name reported by the backend for slot index.
func (s *Subsystem) GetName(index int) (string, error) {
	slot, err := s.joysticks.Slot(index)
	if err != nil {
		return "", err
	}
	return slot.Name, nil
}

// GetGUID returns the GUID of the device in slot index.
func (s *Subsystem) GetGUID(index int) (mapping.GUID, error) {
	slot, err := s.joysticks.Slot(index)
	if err != nil {
		return mapping.ZeroGUID, err
	}
	return slot.GUID, nil
}

// GetMapping returns the configuration used for slot index.
func (s *Subsystem) GetMapping(index int) (*mapping.Configuration, error) {
	slot, err := s.joysticks.Slot(index)
	if err != nil {
		return nil, err
	}
	return s.db.Lookup(slot.GUID), nil
}

// GetAxis returns a raw axis of slot index scaled to -1.0..1.0.
func (s *Subsystem) GetAxis(index int, axis int) (float64, error) {
	return s.joysticks.GetAxis(index, axis)
}

// GetButton returns the raw state of a button of slot index.
func (s *Subsystem) GetButton(index int, button int) (bool, error) {
	return s.joysticks.GetButton(index, button)
}

// GetHat returns the location of a hat of slot index.
func (s *Subsystem) GetHat(index int, hat int) (mapping.HatLocation, error) {
	return s.joysticks.GetHat(index, hat)
}

// AddMapping adds or replaces a mapping record. A malformed record leaves the
// database unchanged.
func (s *Subsystem) AddMapping(record string) (*mapping.Configuration, error) {
	cfg, err := s.db.Add(record)
	if err != nil {
		return nil, err
	}
	s.debugf("Mapping added: %s (%s)", cfg.Name, cfg.GUID)
	return cfg, nil
}

// AddMappingsFromFile adds every record of a mapping file. Returns the number
// of records added.
func (s *Subsystem) AddMappingsFromFile(path string) (int, error) {
	n, err := s.db.AddFromFile(path)
	if err != nil {
		return 0, fmt.Errorf("input: %w", err)
	}
	return n, nil
}
