package parking

import "errors"

var (
	// ErrSlotNotFound is returned when no slot matches an id.
	ErrSlotNotFound = errors.New("parking: slot not found")
	// ErrInvalidSize is returned when a registry would have no slots.
	ErrInvalidSize = errors.New("parking: invalid registry size")
	// ErrNilRandom is returned when no random source is provided.
	ErrNilRandom = errors.New("parking: nil random source")
	// ErrEmptySlotID is returned when a slot has no id.
	ErrEmptySlotID = errors.New("parking: empty slot id")
	// ErrDuplicateSlotID is returned when two slots share an id.
	ErrDuplicateSlotID = errors.New("parking: duplicate slot id")
	// ErrInvalidStatus is returned for an unknown slot status.
	ErrInvalidStatus = errors.New("parking: invalid slot status")
)
