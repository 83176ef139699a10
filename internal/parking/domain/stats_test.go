package parking

import (
	"testing"
	"time"
)

func TestRecomputeStats(t *testing.T) {
	reg := mustRegistry(t, StatusFree, StatusFree, StatusOccupied, StatusReserved, StatusMaintenance)
	counts := RecomputeStats(reg.Slots())
	want := SlotCounts{TotalSpots: 5, Occupied: 1, Free: 2, Reserved: 1}
	if counts != want {
		t.Fatalf("expected %+v, got %+v", want, counts)
	}
	if counts.Maintenance() != 1 {
		t.Fatalf("expected 1 maintenance slot, got %d", counts.Maintenance())
	}
}

func TestRecomputeStats_BoundHoldsAcrossMutations(t *testing.T) {
	reg := mustRegistry(t, StatusFree, StatusOccupied, StatusFree, StatusFree)
	ids := []string{"slot-1", "slot-2", "slot-3", "slot-4"}
	now := time.Now()
	for step := 0; step < 40; step++ {
		id := ids[step%len(ids)]
		if step%3 == 0 {
			_, _ = reg.Reserve(id, now)
		} else {
			_, _ = reg.Toggle(id, now)
		}
		reg.Flip(step%reg.Len(), now)

		counts := RecomputeStats(reg.Slots())
		if counts.Occupied+counts.Free+counts.Reserved > counts.TotalSpots {
			t.Fatalf("step %d: counts exceed total: %+v", step, counts)
		}
		if counts.TotalSpots != reg.Len() {
			t.Fatalf("step %d: total %d != registry size %d", step, counts.TotalSpots, reg.Len())
		}
	}
}

func TestEnvironmentPerturb(t *testing.T) {
	env := DefaultEnvironment()

	// u=1 moves each reading by +scale/2.
	up := env.Perturb(&fixedRandom{floats: []float64{1, 1, 1}})
	if up.Temperature != 24.6 || up.Humidity != 45.3 || up.CO2Level != 412 {
		t.Fatalf("unexpected upward perturbation: %+v", up)
	}

	// u=0 moves each reading by -scale/2; CO2 floors 407.5 to 407.
	down := env.Perturb(&fixedRandom{floats: []float64{0, 0, 0}})
	if down.Temperature != 24.4 || down.Humidity != 44.8 || down.CO2Level != 407 {
		t.Fatalf("unexpected downward perturbation: %+v", down)
	}

	same := env.Perturb(&fixedRandom{floats: []float64{0.5, 0.5, 0.5}})
	if same != env {
		t.Fatalf("expected unchanged readings at midpoint, got %+v", same)
	}
}
