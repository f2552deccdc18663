// Package engine drives the event loop: pop the globally next event,
// validate it against each participant's freshness token, stream the
// participants to the event time, resolve it, and repredict (spec §2's
// data-flow paragraph, §4.7). Simulation owns every other package's
// top-level object (the particle array, the interaction registry, the
// cell grid, the chosen FEL discipline and the capture map) the way the
// teacher's top-level World/Game type owns its subsystems.
package engine

import (
	"context"
	"math/rand/v2"

	"github.com/pthm-cable/edmd/cellgrid"
	"github.com/pthm-cable/edmd/fel"
	"github.com/pthm-cable/edmd/interaction"
	"github.com/pthm-cable/edmd/kind"
	"github.com/pthm-cable/edmd/particle"
	"github.com/pthm-cable/edmd/process"
	"github.com/pthm-cable/edmd/telemetry"
	"github.com/pthm-cable/edmd/vector"
)

// Simulation is the event-driven core: everything the loop needs to pop,
// validate, resolve and repredict one event.
type Simulation struct {
	Particles []particle.Particle
	Registry  *interaction.Registry
	Grid      *cellgrid.Grid
	FEL       fel.FEL
	Captures  *particle.CaptureMap
	BC        vector.Boundary
	RNG       *rand.Rand

	Ensemble    kind.Ensemble
	Thermostat  *process.Thermostat
	Compression process.Compression
	RecalcEvery float64 // Recalculate milestone interval; 0 disables it
	RescaleBy   float64 // factor applied to diameters/positions per Recalculate
	HaltAt      float64
	CapEpsilon  float64 // ε_cap: overlap tolerance of NewSimulation's initial overlap check; capture state is never compared with geometry

	// MaxCaptureDesyncs caps how many CaptureDesync recoveries (spec §7)
	// the engine tolerates before treating further desyncs as a genuine
	// bug rather than expected drift and returning a *CaptureDesync error
	// from Run. Zero means unlimited — desyncs are recovered inline
	// forever, matching §7's "expected drift, never surfaced" default.
	MaxCaptureDesyncs int

	Hooks telemetry.Hooks

	now            float64
	eventsElapsed  int64
	kineticTotal   float64
	potentialTotal float64
	captureDesyncs int64

	// systemOwner is the PEL slot Halt, Recalculate and Thermostat
	// reschedules are filed under: a slot one past the last real particle
	// index, so predictFor's per-particle ClearPEL never touches it. The
	// FEL passed to NewSimulation must therefore be sized for
	// len(particles)+1 owners.
	systemOwner int

	neighbourScratch []int
}

// NewSimulation builds a Simulation ready to run. Every particle's initial
// predictions (pair events and cell crossings) are scheduled before it
// returns; the halt sentinel, the thermostat and the recalculate milestone
// are only scheduled by EnableHalt, EnableThermostat and EnableRecalculate.
// f must have been allocated with capacity for
// len(particles)+1 owners, the extra slot reserved for system events.
func NewSimulation(particles []particle.Particle, registry *interaction.Registry, grid *cellgrid.Grid, f fel.FEL, bc vector.Boundary, rng *rand.Rand) (*Simulation, error) {
	s := &Simulation{
		Particles:   particles,
		Registry:    registry,
		Grid:        grid,
		FEL:         f,
		Captures:    particle.NewCaptureMap(),
		BC:          bc,
		RNG:         rng,
		CapEpsilon:  1e-9,
		systemOwner: len(particles),
	}

	for i := range s.Particles {
		p := &s.Particles[i]
		if !vector.IsFinite(p.Vel) || !vector.IsFinite(p.Pos) {
			return nil, &ConfigError{Reason: "particle has non-finite position or velocity"}
		}
	}
	if err := s.checkOverlaps(); err != nil {
		return nil, err
	}

	for i := range s.Particles {
		s.Grid.Insert(&s.Particles[i], s.Particles[i].Pos)
	}
	for i := range s.Particles {
		s.predictFor(i)
	}
	s.FEL.Rebuild()

	s.kineticTotal = s.totalKineticEnergy()
	return s, nil
}

func (s *Simulation) checkOverlaps() error {
	for i := range s.Particles {
		for j := i + 1; j < len(s.Particles); j++ {
			a, b := &s.Particles[i], &s.Particles[j]
			dr, _ := s.BC.Delta(a.Pos, b.Pos)
			sep := vector.Norm(dr)
			contact := 0.5 * (a.Diameter + b.Diameter)
			if sep < contact-s.CapEpsilon {
				return &OverlapError{A: a.ID, B: b.ID, Sep: sep}
			}
		}
	}
	return nil
}

func (s *Simulation) totalKineticEnergy() float64 {
	var total float64
	for i := range s.Particles {
		p := &s.Particles[i]
		total += 0.5 * p.Mass * vector.NormSq(p.Vel)
	}
	return total
}

// kineticEnergyOf returns one particle's instantaneous kinetic energy.
func kineticEnergyOf(p *particle.Particle) float64 {
	return 0.5 * p.Mass * vector.NormSq(p.Vel)
}

// EnableThermostat arms the Andersen thermostat (NVT/NVShear ensembles)
// and schedules its first firing.
func (s *Simulation) EnableThermostat(th *process.Thermostat, kT float64) {
	s.Thermostat = th
	s.scheduleThermostat(s.now, kT)
}

func (s *Simulation) scheduleThermostat(now, kT float64) {
	if s.Thermostat == nil || len(s.Particles) == 0 {
		return
	}
	t := s.Thermostat.NextFiring(now, len(s.Particles), s.RNG)
	s.FEL.Push(particle.NewSystemEvent(t, kind.Thermostat, particle.NoParticle, 0), s.systemOwner)
}

// EnableRecalculate arms the periodic compression rescale milestone (spec
// §10's r/σ-invariant-preserving rescale).
func (s *Simulation) EnableRecalculate(every, factor float64) {
	s.RecalcEvery = every
	s.RescaleBy = factor
	if every > 0 {
		s.FEL.Push(particle.NewSystemEvent(s.now+every, kind.Recalculate, particle.NoParticle, 0), s.systemOwner)
	}
}

// EnableHalt schedules the run's terminal sentinel event at t_end.
func (s *Simulation) EnableHalt(at float64) {
	s.HaltAt = at
	s.FEL.Push(particle.NewSystemEvent(at, kind.Halt, particle.NoParticle, 0), s.systemOwner)
}

// Now returns the simulation's current time (the time of the last
// processed event).
func (s *Simulation) Now() float64 { return s.now }

// EventsElapsed returns the number of events processed so far.
func (s *Simulation) EventsElapsed() int64 { return s.eventsElapsed }

// Run drives the event loop until the total count of processed events
// (EventsElapsed, counted from the start of the simulation) reaches
// untilEvents, the Halt event fires, or ctx is cancelled (spec §5 — context threaded
// between events, not within one).
func (s *Simulation) Run(ctx context.Context, untilEvents int64) error {
	for s.eventsElapsed < untilEvents {
		if err := ctx.Err(); err != nil {
			return err
		}

		owner, e, ok := s.FEL.Next()
		if !ok {
			return nil
		}
		s.FEL.PopNextPELEvent(owner)

		if !s.tokensFresh(e) {
			continue
		}

		halted, err := s.process(e)
		if err != nil {
			return err
		}
		s.eventsElapsed++
		if halted {
			return nil
		}
	}
	return nil
}

func (s *Simulation) tokensFresh(e particle.Event) bool {
	if e.A != particle.NoParticle && s.Particles[e.A].Token != e.TokenA {
		return false
	}
	if e.B != particle.NoParticle && s.Particles[e.B].Token != e.TokenB {
		return false
	}
	return true
}

// process resolves one validated event and reports whether it was the
// Halt sentinel.
func (s *Simulation) process(e particle.Event) (halted bool, err error) {
	switch e.Kind {
	case kind.PairInteraction:
		return false, s.processPair(e)
	case kind.CellCross:
		return false, s.processCellCross(e)
	case kind.Thermostat:
		return false, s.processThermostat(e)
	case kind.Recalculate:
		return false, s.processRecalculate(e)
	case kind.Halt:
		s.now = e.T
		return true, nil
	default:
		return false, &NumericalError{Reason: "unknown event kind", A: e.A, B: e.B}
	}
}

func (s *Simulation) processPair(e particle.Event) error {
	a, b := &s.Particles[e.A], &s.Particles[e.B]
	a.Stream(e.T)
	b.Stream(e.T)
	s.now = e.T

	in, ok := s.Registry.Lookup(a.Species, b.Species)
	if !ok {
		return &ConfigError{Reason: "no interaction registered for this pair type"}
	}

	recordedShell, captured := s.Captures.Shell(a.ID, b.ID)
	actualFrom := interaction.NoShell
	if captured {
		actualFrom = recordedShell
	}

	if actualFrom != e.Payload.ShellFrom {
		// CaptureDesync (spec §7): trust the live capture map over the
		// stale payload, discard this event, and repredict both
		// particles from the true current state.
		s.Hooks.fire(e, telemetry.EventData{
			KineticEnergy:   s.kineticTotal,
			PotentialEnergy: s.potentialTotal,
			CapturedPairs:   s.Captures.Len(),
			Desynced:        true,
		})
		s.captureDesyncs++
		if s.MaxCaptureDesyncs > 0 && s.captureDesyncs > int64(s.MaxCaptureDesyncs) {
			return &CaptureDesync{A: a.ID, B: b.ID, Shell: actualFrom}
		}
		s.predictFor(a.ID)
		s.predictFor(b.ID)
		return nil
	}

	var energyBefore float64
	if es, ok := in.(interaction.EnergySource); ok {
		energyBefore = es.Energy(actualFrom)
	}
	keBefore := kineticEnergyOf(a) + kineticEnergyOf(b)

	reflected := in.Resolve(a, b, s.BC, e.Payload.ShellFrom, e.Payload.ShellTo)

	if !vector.IsFinite(a.Vel) || !vector.IsFinite(b.Vel) {
		return &NumericalError{Reason: "non-finite velocity after resolve", A: a.ID, B: b.ID}
	}

	actualTo := e.Payload.ShellTo
	if reflected {
		actualTo = e.Payload.ShellFrom
	}
	if actualTo == interaction.NoShell {
		s.Captures.Release(a.ID, b.ID)
	} else {
		s.Captures.Set(a.ID, b.ID, actualTo)
	}

	var energyAfter float64
	if es, ok := in.(interaction.EnergySource); ok {
		energyAfter = es.Energy(actualTo)
	}
	keAfter := kineticEnergyOf(a) + kineticEnergyOf(b)

	s.kineticTotal += keAfter - keBefore
	s.potentialTotal += energyAfter - energyBefore

	s.Hooks.fire(e, telemetry.EventData{
		KineticEnergy:   s.kineticTotal,
		PotentialEnergy: s.potentialTotal,
		CapturedPairs:   s.Captures.Len(),
		Reflected:       reflected,
	})

	s.predictFor(a.ID)
	s.predictFor(b.ID)
	return nil
}

func (s *Simulation) processCellCross(e particle.Event) error {
	p := &s.Particles[e.A]
	oldCell := p.Cell
	p.Stream(e.T)
	s.now = e.T
	p.Pos = s.BC.Wrap(p.Pos)

	s.Grid.Remove(oldCell, p.ID)
	s.Grid.Insert(p, p.Pos)
	p.Bump()

	s.Hooks.fire(e, telemetry.EventData{
		KineticEnergy:   s.kineticTotal,
		PotentialEnergy: s.potentialTotal,
		CapturedPairs:   s.Captures.Len(),
	})

	s.predictFor(p.ID)
	return nil
}

func (s *Simulation) processThermostat(e particle.Event) error {
	if s.Thermostat == nil {
		return nil
	}
	p := &s.Particles[s.RNG.IntN(len(s.Particles))]
	p.Stream(e.T)
	s.now = e.T

	keBefore := kineticEnergyOf(p)
	kT := s.Thermostat.Temperature
	s.Thermostat.Fire(p, kT)
	keAfter := kineticEnergyOf(p)
	s.kineticTotal += keAfter - keBefore

	s.Hooks.fire(e, telemetry.EventData{
		KineticEnergy:   s.kineticTotal,
		PotentialEnergy: s.potentialTotal,
		CapturedPairs:   s.Captures.Len(),
	})

	s.predictFor(p.ID)
	s.scheduleThermostat(s.now, kT)
	return nil
}

func (s *Simulation) processRecalculate(e particle.Event) error {
	s.now = e.T
	for i := range s.Particles {
		s.Particles[i].Stream(e.T)
	}
	s.Compression.Rescale(s.Particles, s.RescaleBy)

	for i := range s.Particles {
		s.Particles[i].Pos = s.BC.Wrap(s.Particles[i].Pos)
	}
	s.Grid.Clear()
	for i := range s.Particles {
		s.Grid.Insert(&s.Particles[i], s.Particles[i].Pos)
	}
	for i := range s.Particles {
		s.predictFor(i)
	}
	s.kineticTotal = s.totalKineticEnergy()

	s.Hooks.fire(e, telemetry.EventData{
		KineticEnergy:   s.kineticTotal,
		PotentialEnergy: s.potentialTotal,
		CapturedPairs:   s.Captures.Len(),
	})

	if s.RecalcEvery > 0 {
		s.FEL.Push(particle.NewSystemEvent(s.now+s.RecalcEvery, kind.Recalculate, particle.NoParticle, 0), s.systemOwner)
	}
	return nil
}

// predictFor clears particle i's PEL and reschedules its cell-crossing
// event and every pair prediction against its current cell neighbours
// (spec §4.7's "repredict" step).
func (s *Simulation) predictFor(i int) {
	s.FEL.ClearPEL(i)
	p := &s.Particles[i]

	if t, ok := s.Grid.NextCrossing(p, s.now); ok {
		s.FEL.Push(particle.NewCellCrossEvent(t, i, p.Token, 0), i)
	}

	s.neighbourScratch = s.Grid.Neighbours(s.neighbourScratch[:0], p.Pos, i)
	for _, j := range s.neighbourScratch {
		q := &s.Particles[j]
		in, ok := s.Registry.Lookup(p.Species, q.Species)
		if !ok {
			continue
		}
		shell := interaction.NoShell
		if sh, captured := s.Captures.Shell(p.ID, q.ID); captured {
			shell = sh
		}
		pred, ok := in.Predict(p, q, s.now, s.BC, shell)
		if !ok {
			continue
		}
		owner := i
		if j < i {
			owner = j
		}
		s.FEL.Push(particle.NewPairEvent(pred.T, i, j, p.Token, q.Token, pred.ShellFrom, pred.ShellTo), owner)
	}
}
