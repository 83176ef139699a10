package events

import (
	"time"

	parking "smartpark-iot/internal/parking/domain"
)

// Source identifies what caused a slot transition.
type Source string

const (
	SourceSimulation  Source = "simulation"
	SourceReservation Source = "reservation"
	SourceAdmin       Source = "admin"
)

// SlotStatusChanged is published after a slot transition is applied.
type SlotStatusChanged struct {
	SlotID string             `json:"slotId"`
	Label  string             `json:"label"`
	From   parking.SlotStatus `json:"from"`
	To     parking.SlotStatus `json:"to"`
	Source Source             `json:"source"`
	At     time.Time          `json:"at"`
}

// StatsUpdated carries the stats recomputed at the mutating call site.
type StatsUpdated struct {
	Stats parking.SystemStats `json:"stats"`
	At    time.Time           `json:"at"`
}

// SimulationToggled is published when the simulation timer starts or stops.
type SimulationToggled struct {
	Active bool      `json:"active"`
	At     time.Time `json:"at"`
}
