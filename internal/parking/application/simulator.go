package application

import (
	"errors"
	"math/rand/v2"
	"time"

	parking "smartpark-iot/internal/parking/domain"
)

const (
	// DefaultInterval is the reference tick period.
	DefaultInterval = 3 * time.Second
	// DefaultPicksPerTick is the number of slot indices drawn per tick.
	DefaultPicksPerTick = 2
	// DefaultFlipProbability is the chance that a picked slot flips.
	DefaultFlipProbability = 0.2
)

// SimulatorConfig tunes the sensor-noise model.
type SimulatorConfig struct {
	PicksPerTick    int
	FlipProbability float64
}

// Simulator emulates sensor noise on a registry.
type Simulator struct {
	rnd       parking.Random
	picks     int
	flipAbove float64
}

// TickResult describes one tick.
type TickResult struct {
	Picks       []int
	Transitions []parking.Transition
	Environment parking.Environment
}

// NewSimulator constructs a Simulator. Zero config fields fall back to defaults.
func NewSimulator(rnd parking.Random, cfg SimulatorConfig) (*Simulator, error) {
	if rnd == nil {
		return nil, errors.New("simulator: nil random source")
	}
	if cfg.PicksPerTick <= 0 {
		cfg.PicksPerTick = DefaultPicksPerTick
	}
	if cfg.FlipProbability <= 0 {
		cfg.FlipProbability = DefaultFlipProbability
	}
	if cfg.FlipProbability > 1 {
		return nil, errors.New("simulator: flip probability above 1")
	}
	return &Simulator{rnd: rnd, picks: cfg.PicksPerTick, flipAbove: 1 - cfg.FlipProbability}, nil
}

// NewRandom returns the production random source. A zero seed draws a random one.
func NewRandom(seed uint64) parking.Random {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return pcgRandom{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type pcgRandom struct {
	r *rand.Rand
}

func (p pcgRandom) Intn(n int) int   { return p.r.IntN(n) }
func (p pcgRandom) Float64() float64 { return p.r.Float64() }

// Tick picks slots with replacement, flips each eligible pick with the configured
// probability and perturbs the environment. It never fails.
func (s *Simulator) Tick(reg *parking.Registry, env parking.Environment, now time.Time) TickResult {
	result := TickResult{}
	if n := reg.Len(); n > 0 {
		result.Picks = make([]int, s.picks)
		for i := range result.Picks {
			result.Picks[i] = s.rnd.Intn(n)
		}
		for _, idx := range result.Picks {
			slot, ok := reg.At(idx)
			if !ok || !slot.AutoMutable() {
				continue
			}
			if s.rnd.Float64() <= s.flipAbove {
				continue
			}
			if tr, changed := reg.Flip(idx, now); changed {
				result.Transitions = append(result.Transitions, tr)
			}
		}
	}
	result.Environment = env.Perturb(s.rnd)
	return result
}
