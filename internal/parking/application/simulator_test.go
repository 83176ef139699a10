package application

import (
	"testing"

	parking "smartpark-iot/internal/parking/domain"
)

func TestNewSimulator_Validation(t *testing.T) {
	if _, err := NewSimulator(nil, SimulatorConfig{}); err == nil {
		t.Fatalf("expected error for nil random source")
	}
	if _, err := NewSimulator(&scriptedRandom{}, SimulatorConfig{FlipProbability: 1.5}); err == nil {
		t.Fatalf("expected error for probability above 1")
	}
	sim, err := NewSimulator(&scriptedRandom{}, SimulatorConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sim.picks != DefaultPicksPerTick {
		t.Fatalf("expected default picks, got %d", sim.picks)
	}
}

func TestSimulatorTick_DrawOrder(t *testing.T) {
	// Picks are drawn first, then one flip draw per eligible pick, then the environment.
	rnd := &scriptedRandom{ints: []int{1, 0}, floats: []float64{0.9, 0.9, 0.5, 0.5, 0.5}}
	reg, err := parking.NewRegistryFromSlots([]parking.ParkingSlot{
		{ID: "a", Status: parking.StatusOccupied},
		{ID: "b", Status: parking.StatusFree},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	sim, _ := NewSimulator(rnd, SimulatorConfig{})

	result := sim.Tick(reg, parking.DefaultEnvironment(), testNow)
	if len(result.Transitions) != 2 {
		t.Fatalf("expected 2 flips, got %d", len(result.Transitions))
	}
	if result.Transitions[0].Slot.ID != "b" || result.Transitions[0].To != parking.StatusOccupied {
		t.Fatalf("unexpected first transition %+v", result.Transitions[0])
	}
	if result.Transitions[1].Slot.ID != "a" || result.Transitions[1].To != parking.StatusFree {
		t.Fatalf("unexpected second transition %+v", result.Transitions[1])
	}
	if result.Environment != parking.DefaultEnvironment() {
		t.Fatalf("expected unchanged environment at midpoint draws, got %+v", result.Environment)
	}
	if len(rnd.floats) != 0 {
		t.Fatalf("expected all draws consumed, %d left", len(rnd.floats))
	}
}

func TestSimulatorTick_SkipsDrawForProtectedSlots(t *testing.T) {
	rnd := &scriptedRandom{ints: []int{0, 1}, floats: []float64{0.95, 0.5, 0.5, 0.5}}
	reg, _ := parking.NewRegistryFromSlots([]parking.ParkingSlot{
		{ID: "a", Status: parking.StatusMaintenance},
		{ID: "b", Status: parking.StatusFree},
	})
	sim, _ := NewSimulator(rnd, SimulatorConfig{})

	result := sim.Tick(reg, parking.DefaultEnvironment(), testNow)
	if len(result.Transitions) != 1 || result.Transitions[0].Slot.ID != "b" {
		t.Fatalf("expected only slot b to flip, got %+v", result.Transitions)
	}
	slot, _ := reg.Get("a")
	if slot.Status != parking.StatusMaintenance {
		t.Fatalf("maintenance slot changed to %s", slot.Status)
	}
}

func TestNewRandom_SeedIsDeterministic(t *testing.T) {
	a, b := NewRandom(99), NewRandom(99)
	for i := 0; i < 10; i++ {
		if a.Intn(48) != b.Intn(48) || a.Float64() != b.Float64() {
			t.Fatalf("draw %d diverged for equal seeds", i)
		}
	}
}
