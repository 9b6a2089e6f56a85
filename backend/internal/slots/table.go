// Package slots implements the append-only slot table shared by the joystick
// and gamepad registries.
//
// A slot is created the first time a device is added at a given position and
// is never removed or moved afterwards. Disconnection clears the entry in the
// instance index and nothing else, so an index handed out to a caller stays
// valid for the life of the table. A slot held by a connected device is never
// handed to another one.
//
// Two identifiers are involved and they are kept apart on purpose:
//
//   - the device id is the position of the device among the currently
//     enumerable devices. It only has meaning at the moment the device is
//     added.
//   - the instance id is assigned by the backend once per physical connection
//     and is the handle used by every subsequent event.
package slots

// InstanceID is the durable handle assigned by the backend to one physical
// connection of a device.
type InstanceID int32

// Table is an arena of T with an instance id index. The zero value is not
// usable, use New().
type Table[T any] struct {
	entries  []T
	instance map[InstanceID]int
}

// New creates an empty table.
func New[T any]() *Table[T] {
	return &Table[T]{
		instance: make(map[InstanceID]int),
	}
}

// Place stores v for a device that was added at deviceID with the given
// instance id. A slot at position deviceID is reused when no connected device
// holds it, otherwise v is appended. Returns the slot index.
func (t *Table[T]) Place(deviceID int, id InstanceID, v T) int {
	idx := len(t.entries)
	if t.Reusable(deviceID, id) {
		idx = deviceID
		t.entries[idx] = v
	} else {
		t.entries = append(t.entries, v)
	}
	t.instance[id] = idx
	return idx
}

// Reusable reports whether a device added at deviceID with instance id would
// be placed in the existing slot at deviceID. That is the case when the slot
// exists and is not held by another connected instance.
func (t *Table[T]) Reusable(deviceID int, id InstanceID) bool {
	if deviceID < 0 || deviceID >= len(t.entries) {
		return false
	}
	for held, i := range t.instance {
		if i == deviceID && held != id {
			return false
		}
	}
	return true
}

// Release forgets the instance id. Returns the slot index the id referred to
// and false if the id is not currently known.
func (t *Table[T]) Release(id InstanceID) (int, bool) {
	idx, ok := t.instance[id]
	if !ok {
		return 0, false
	}
	delete(t.instance, id)
	return idx, true
}

// Resolve returns the slot index for an instance id.
func (t *Table[T]) Resolve(id InstanceID) (int, bool) {
	idx, ok := t.instance[id]
	return idx, ok
}

// Get returns a pointer to the slot at idx, or nil if idx has never been
// assigned. The pointer is only valid until the next call to Place.
func (t *Table[T]) Get(idx int) *T {
	if idx < 0 || idx >= len(t.entries) {
		return nil
	}
	return &t.entries[idx]
}

// Len is the number of slots ever assigned.
func (t *Table[T]) Len() int {
	return len(t.entries)
}

// Active is the number of instance ids currently indexed.
func (t *Table[T]) Active() int {
	return len(t.instance)
}
