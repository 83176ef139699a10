package parking

import "math"

// Initial environmental readings of a fresh session.
const (
	InitialTemperature = 24.5
	InitialHumidity    = 45.0
	InitialCO2Level    = 410
)

// Per-tick perturbation widths; each reading moves by (u-0.5)*scale.
const (
	temperatureScale = 0.2
	humidityScale    = 0.5
	co2Scale         = 5.0
)

// SlotCounts is derived from the registry and never mutated on its own.
type SlotCounts struct {
	TotalSpots int `json:"totalSpots"`
	Occupied   int `json:"occupied"`
	Free       int `json:"free"`
	Reserved   int `json:"reserved"`
}

// Maintenance returns slots counted in TotalSpots but in none of the named buckets.
func (c SlotCounts) Maintenance() int {
	return c.TotalSpots - c.Occupied - c.Free - c.Reserved
}

// Environment holds the simulated lot sensors.
type Environment struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	CO2Level    int     `json:"co2Level"`
}

// DefaultEnvironment returns the readings a session starts with.
func DefaultEnvironment() Environment {
	return Environment{
		Temperature: InitialTemperature,
		Humidity:    InitialHumidity,
		CO2Level:    InitialCO2Level,
	}
}

// Perturb returns the next reading. Temperature and humidity are rounded to one
// decimal, CO2 is floored to an integer.
func (e Environment) Perturb(rnd Random) Environment {
	return Environment{
		Temperature: round1(e.Temperature + (rnd.Float64()-0.5)*temperatureScale),
		Humidity:    round1(e.Humidity + (rnd.Float64()-0.5)*humidityScale),
		CO2Level:    int(math.Floor(float64(e.CO2Level) + (rnd.Float64()-0.5)*co2Scale)),
	}
}

// SystemStats is the aggregate view consumed by dashboards.
type SystemStats struct {
	SlotCounts
	Environment
	ActiveSensors int `json:"activeSensors"`
}

// RecomputeStats counts slots by status with a full pass.
func RecomputeStats(slots []ParkingSlot) SlotCounts {
	counts := SlotCounts{TotalSpots: len(slots)}
	for _, slot := range slots {
		switch slot.Status {
		case StatusOccupied:
			counts.Occupied++
		case StatusFree:
			counts.Free++
		case StatusReserved:
			counts.Reserved++
		}
	}
	return counts
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
