package parking

import (
	"fmt"
	"time"
)

// SlotStatus is the current state of a parking slot.
type SlotStatus string

const (
	StatusFree        SlotStatus = "free"
	StatusOccupied    SlotStatus = "occupied"
	StatusReserved    SlotStatus = "reserved"
	StatusMaintenance SlotStatus = "maintenance"
)

// IsValid reports whether the status is one of the known values.
func (s SlotStatus) IsValid() bool {
	switch s {
	case StatusFree, StatusOccupied, StatusReserved, StatusMaintenance:
		return true
	default:
		return false
	}
}

// SlotType is fixed at registry creation.
type SlotType string

const (
	TypeStandard SlotType = "standard"
	TypeDisabled SlotType = "disabled"
	TypeEV       SlotType = "ev"
)

// ParkingSlot is one physical spot.
type ParkingSlot struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Status      SlotStatus `json:"status"`
	Type        SlotType   `json:"type"`
	Floor       int        `json:"floor"`
	SensorID    string     `json:"sensorId"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// AutoMutable reports whether the simulation may flip this slot.
func (s ParkingSlot) AutoMutable() bool {
	return s.Status != StatusReserved && s.Status != StatusMaintenance
}

// NextManualStatus returns the next status of the admin toggle cycle.
// free -> occupied -> maintenance -> free, reserved -> free.
func NextManualStatus(current SlotStatus) SlotStatus {
	switch current {
	case StatusFree:
		return StatusOccupied
	case StatusOccupied:
		return StatusMaintenance
	case StatusMaintenance:
		return StatusFree
	case StatusReserved:
		return StatusFree
	default:
		return current
	}
}

// flipped returns the sensor-noise counterpart of free/occupied.
func flipped(current SlotStatus) SlotStatus {
	if current == StatusOccupied {
		return StatusFree
	}
	return StatusOccupied
}

func slotID(i int) string    { return fmt.Sprintf("slot-%d", i+1) }
func slotLabel(i int) string { return fmt.Sprintf("A-%03d", i+1) }
func sensorID(i int) string  { return fmt.Sprintf("SN-%d", 1000+i) }

func slotTypeFor(i int) SlotType {
	switch {
	case i%10 == 0:
		return TypeDisabled
	case i%15 == 0:
		return TypeEV
	default:
		return TypeStandard
	}
}
