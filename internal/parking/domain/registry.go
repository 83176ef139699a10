package parking

import "time"

// DefaultSlotCount is the reference lot size.
const DefaultSlotCount = 48

// initialOccupiedThreshold: a seeded slot starts occupied when the draw exceeds it (~30%).
const initialOccupiedThreshold = 0.7

// Random is the source of randomness used by seeding and simulation.
type Random interface {
	Intn(n int) int
	Float64() float64
}

// Registry owns the slot records of a session. It is not safe for concurrent use;
// the owning session serialises access.
type Registry struct {
	slots []ParkingSlot
	index map[string]int
}

// NewRegistry seeds size slots with randomized initial status.
func NewRegistry(size int, rnd Random, now time.Time) (*Registry, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	if rnd == nil {
		return nil, ErrNilRandom
	}
	slots := make([]ParkingSlot, size)
	for i := range slots {
		status := StatusFree
		if rnd.Float64() > initialOccupiedThreshold {
			status = StatusOccupied
		}
		slots[i] = ParkingSlot{
			ID:          slotID(i),
			Label:       slotLabel(i),
			Status:      status,
			Type:        slotTypeFor(i),
			Floor:       1,
			SensorID:    sensorID(i),
			LastUpdated: now.UTC(),
		}
	}
	return NewRegistryFromSlots(slots)
}

// NewRegistryFromSlots builds a registry from explicit slots. IDs must be unique.
func NewRegistryFromSlots(slots []ParkingSlot) (*Registry, error) {
	if len(slots) == 0 {
		return nil, ErrInvalidSize
	}
	r := &Registry{
		slots: make([]ParkingSlot, len(slots)),
		index: make(map[string]int, len(slots)),
	}
	for i, slot := range slots {
		if slot.ID == "" {
			return nil, ErrEmptySlotID
		}
		if !slot.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		if _, dup := r.index[slot.ID]; dup {
			return nil, ErrDuplicateSlotID
		}
		r.slots[i] = slot
		r.index[slot.ID] = i
	}
	return r, nil
}

// Len returns the number of slots.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.slots)
}

// Slots returns a copy of all slots in registry order.
func (r *Registry) Slots() []ParkingSlot {
	if r == nil {
		return nil
	}
	out := make([]ParkingSlot, len(r.slots))
	copy(out, r.slots)
	return out
}

// At returns the slot at position i.
func (r *Registry) At(i int) (ParkingSlot, bool) {
	if r == nil || i < 0 || i >= len(r.slots) {
		return ParkingSlot{}, false
	}
	return r.slots[i], true
}

// Get returns the slot with the given id.
func (r *Registry) Get(id string) (ParkingSlot, error) {
	if r == nil {
		return ParkingSlot{}, ErrSlotNotFound
	}
	i, ok := r.index[id]
	if !ok {
		return ParkingSlot{}, ErrSlotNotFound
	}
	return r.slots[i], nil
}

// Transition records one status change.
type Transition struct {
	Slot ParkingSlot
	From SlotStatus
	To   SlotStatus
}

// Reserve marks the slot reserved regardless of its current status.
func (r *Registry) Reserve(id string, now time.Time) (Transition, error) {
	return r.set(id, func(SlotStatus) SlotStatus { return StatusReserved }, now)
}

// Toggle advances the slot through the manual admin cycle.
func (r *Registry) Toggle(id string, now time.Time) (Transition, error) {
	return r.set(id, NextManualStatus, now)
}

// Flip swaps free and occupied for the slot at index i. Reserved and maintenance
// slots are left alone and reported as unchanged.
func (r *Registry) Flip(i int, now time.Time) (Transition, bool) {
	if r == nil || i < 0 || i >= len(r.slots) {
		return Transition{}, false
	}
	slot := &r.slots[i]
	if !slot.AutoMutable() {
		return Transition{}, false
	}
	from := slot.Status
	slot.Status = flipped(from)
	slot.LastUpdated = now.UTC()
	return Transition{Slot: *slot, From: from, To: slot.Status}, true
}

func (r *Registry) set(id string, next func(SlotStatus) SlotStatus, now time.Time) (Transition, error) {
	if r == nil {
		return Transition{}, ErrSlotNotFound
	}
	i, ok := r.index[id]
	if !ok {
		return Transition{}, ErrSlotNotFound
	}
	slot := &r.slots[i]
	from := slot.Status
	slot.Status = next(from)
	slot.LastUpdated = now.UTC()
	return Transition{Slot: *slot, From: from, To: slot.Status}, nil
}
