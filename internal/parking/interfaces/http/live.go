package http

import (
	"context"
	"encoding/json"

	"smartpark-iot/internal/eventbus"
	"smartpark-iot/internal/parking/application/events"
)

// Live event kinds, used as the SSE event name and the WebSocket envelope type.
const (
	KindSlot       = "slot"
	KindStats      = "stats"
	KindSimulation = "simulation"
)

// Envelope is the WebSocket frame format.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Sink receives encoded live events.
type Sink interface {
	Broadcast(kind string, payload []byte)
}

// BindLive subscribes every sink to the session events on bus.
func BindLive(bus eventbus.Bus, sinks ...Sink) {
	forward := func(kind string, event any) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}
		for _, sink := range sinks {
			if sink != nil {
				sink.Broadcast(kind, payload)
			}
		}
		return nil
	}
	eventbus.On(bus, func(_ context.Context, evt events.SlotStatusChanged) error {
		return forward(KindSlot, evt)
	})
	eventbus.On(bus, func(_ context.Context, evt events.StatsUpdated) error {
		return forward(KindStats, evt)
	})
	eventbus.On(bus, func(_ context.Context, evt events.SimulationToggled) error {
		return forward(KindSimulation, evt)
	})
}
