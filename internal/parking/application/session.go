package application

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"smartpark-iot/internal/eventbus"
	"smartpark-iot/internal/observability/metrics"
	"smartpark-iot/internal/parking/application/events"
	parking "smartpark-iot/internal/parking/domain"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Snapshot is a consistent read of the session state.
type Snapshot struct {
	Slots            []parking.ParkingSlot `json:"slots"`
	Stats            parking.SystemStats   `json:"stats"`
	SimulationActive bool                  `json:"simulationActive"`
}

// Session is the single owner of a lot's slot registry and stats. Every mutation,
// whether from the simulation timer or a manual call, runs under one lock so no
// partial state is observable.
type Session struct {
	// lifecycle serialises Start, Stop and ToggleSimulation together with their events.
	lifecycle sync.Mutex

	mu       sync.Mutex
	registry *parking.Registry
	env      parking.Environment
	stats    parking.SystemStats
	sim      *Simulator

	interval  time.Duration
	clock     Clock
	publisher eventbus.Publisher
	logger    *log.Logger

	running bool
	gen     uint64
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithInterval overrides the tick period.
func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock overrides the clock.
func WithClock(c Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithEnvironment sets the initial environmental readings.
func WithEnvironment(env parking.Environment) Option {
	return func(s *Session) {
		s.env = env
	}
}

// NewSession constructs a stopped session.
func NewSession(registry *parking.Registry, sim *Simulator, publisher eventbus.Publisher, logger *log.Logger, opts ...Option) (*Session, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, errors.New("parking session: empty registry")
	}
	if sim == nil {
		return nil, errors.New("parking session: nil simulator")
	}
	if publisher == nil {
		publisher = eventbus.Nop{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Session{
		registry:  registry,
		env:       parking.DefaultEnvironment(),
		sim:       sim,
		interval:  DefaultInterval,
		clock:     systemClock{},
		publisher: publisher,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.stats = s.recomputeLocked()
	return s, nil
}

// Start begins ticking on a fresh interval. Starting a running session is a no-op.
func (s *Session) Start(ctx context.Context) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.mu.Lock()
	started := s.startLocked(ctx)
	s.mu.Unlock()
	if started {
		s.afterToggle(ctx, true)
	}
}

// Stop halts the timer and waits for the loop to exit. An in-flight tick completes.
func (s *Session) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.mu.Lock()
	done := s.stopLocked()
	s.mu.Unlock()
	if done == nil {
		return
	}
	<-done
	s.afterToggle(context.Background(), false)
}

// ToggleSimulation flips the timer between running and stopped and returns the new state.
func (s *Session) ToggleSimulation(ctx context.Context) bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.mu.Lock()
	var done chan struct{}
	active := !s.running
	if active {
		s.startLocked(ctx)
	} else {
		done = s.stopLocked()
	}
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	s.afterToggle(ctx, active)
	return active
}

// SimulationActive reports whether the timer is running.
func (s *Session) SimulationActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Session) startLocked(ctx context.Context) bool {
	if s.running {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// The loop must outlive the request that started it.
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.gen++
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(loopCtx, s.gen, s.interval, s.done)
	return true
}

func (s *Session) stopLocked() chan struct{} {
	if !s.running {
		return nil
	}
	s.running = false
	s.cancel()
	done := s.done
	s.cancel = nil
	s.done = nil
	return done
}

func (s *Session) loop(ctx context.Context, gen uint64, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.timerTick(ctx, gen)
		}
	}
}

func (s *Session) afterToggle(ctx context.Context, active bool) {
	metrics.SetSimulationActive(active)
	s.logger.Printf("simulation toggled: active=%t", active)
	s.publish(ctx, []any{events.SimulationToggled{Active: active, At: s.clock.Now()}})
}

// timerTick runs a tick only if the loop that fired it is still the current one.
func (s *Session) timerTick(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if !s.running || s.gen != gen {
		s.mu.Unlock()
		return
	}
	result, pending := s.tickLocked()
	s.mu.Unlock()
	s.afterTick(ctx, result, pending)
}

// Tick runs one simulation step immediately, regardless of the timer state.
func (s *Session) Tick(ctx context.Context) TickResult {
	s.mu.Lock()
	result, pending := s.tickLocked()
	s.mu.Unlock()
	s.afterTick(ctx, result, pending)
	return result
}

func (s *Session) tickLocked() (TickResult, []any) {
	now := s.clock.Now()
	result := s.sim.Tick(s.registry, s.env, now)
	s.env = result.Environment
	s.stats = s.recomputeLocked()

	pending := make([]any, 0, len(result.Transitions)+1)
	for _, tr := range result.Transitions {
		pending = append(pending, changedEvent(tr, events.SourceSimulation, now))
	}
	pending = append(pending, events.StatsUpdated{Stats: s.stats, At: now})
	return result, pending
}

func (s *Session) afterTick(ctx context.Context, result TickResult, pending []any) {
	metrics.ObserveTick(len(result.Transitions))
	s.observeStats(pending)
	if len(result.Transitions) > 0 {
		s.logger.Printf("simulation tick: picks=%v flipped=%d", result.Picks, len(result.Transitions))
	}
	s.publish(ctx, pending)
}

// ReserveSlot marks a slot reserved. It reports false and changes nothing when no
// slot matches id.
func (s *Session) ReserveSlot(ctx context.Context, id string) bool {
	return s.mutate(ctx, "reserve", events.SourceReservation, id, s.registry.Reserve)
}

// ToggleSlotStatus advances a slot through the manual cycle. It reports false and
// changes nothing when no slot matches id.
func (s *Session) ToggleSlotStatus(ctx context.Context, id string) bool {
	return s.mutate(ctx, "toggle", events.SourceAdmin, id, s.registry.Toggle)
}

func (s *Session) mutate(ctx context.Context, action string, source events.Source, id string, apply func(string, time.Time) (parking.Transition, error)) bool {
	s.mu.Lock()
	now := s.clock.Now()
	tr, err := apply(id, now)
	if err != nil {
		s.mu.Unlock()
		metrics.IncSlotAction(action, false)
		s.logger.Printf("slot %s ignored: id=%q err=%v", action, id, err)
		return false
	}
	s.stats = s.recomputeLocked()
	pending := []any{
		changedEvent(tr, source, now),
		events.StatsUpdated{Stats: s.stats, At: now},
	}
	s.mu.Unlock()

	metrics.IncSlotAction(action, true)
	s.observeStats(pending)
	s.logger.Printf("slot %s: id=%s %s->%s", action, tr.Slot.ID, tr.From, tr.To)
	s.publish(ctx, pending)
	return true
}

// Slot returns one slot by id.
func (s *Session) Slot(id string) (parking.ParkingSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Get(id)
}

// Slots returns a copy of all slots.
func (s *Session) Slots() []parking.ParkingSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Slots()
}

// Stats returns the latest aggregate.
func (s *Session) Stats() parking.SystemStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Snapshot returns slots, stats and timer state read under one lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Slots:            s.registry.Slots(),
		Stats:            s.stats,
		SimulationActive: s.running,
	}
}

func (s *Session) recomputeLocked() parking.SystemStats {
	return parking.SystemStats{
		SlotCounts:    parking.RecomputeStats(s.registry.Slots()),
		Environment:   s.env,
		ActiveSensors: s.registry.Len(),
	}
}

func (s *Session) observeStats(pending []any) {
	for _, evt := range pending {
		updated, ok := evt.(events.StatsUpdated)
		if !ok {
			continue
		}
		st := updated.Stats
		metrics.SetSlotCounts(st.Occupied, st.Free, st.Reserved, st.Maintenance())
		metrics.SetEnvironment(st.Temperature, st.Humidity, st.CO2Level)
	}
}

func (s *Session) publish(ctx context.Context, pending []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	for _, evt := range pending {
		if err := s.publisher.Publish(ctx, evt); err != nil {
			s.logger.Printf("session publish error: type=%s err=%v", eventbus.TypeName(evt), err)
		}
	}
}

func changedEvent(tr parking.Transition, source events.Source, at time.Time) events.SlotStatusChanged {
	return events.SlotStatusChanged{
		SlotID: tr.Slot.ID,
		Label:  tr.Slot.Label,
		From:   tr.From,
		To:     tr.To,
		Source: source,
		At:     at,
	}
}
