// Command edmd runs an event-driven molecular dynamics simulation from a
// YAML configuration file, emitting a windowed telemetry CSV, a perf CSV
// and periodic state snapshots (spec §6's external interfaces).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pthm-cable/edmd/cellgrid"
	"github.com/pthm-cable/edmd/config"
	"github.com/pthm-cable/edmd/engine"
	"github.com/pthm-cable/edmd/fel"
	"github.com/pthm-cable/edmd/interaction"
	"github.com/pthm-cable/edmd/kind"
	"github.com/pthm-cable/edmd/particle"
	"github.com/pthm-cable/edmd/potential"
	"github.com/pthm-cable/edmd/process"
	"github.com/pthm-cable/edmd/telemetry"
	"github.com/pthm-cable/edmd/vector"
)

var (
	inputPath        = flag.String("input", "", "path to a YAML config file (embedded defaults if empty)")
	outputDir        = flag.String("output", "", "directory for telemetry.csv, perf.csv and snapshots (disabled if empty)")
	untilEvents      = flag.Int64("until-events", 0, "stop after N processed events (0 = use the config value)")
	untilTime        = flag.Float64("until-time", 0, "stop once simulation time reaches this value (0 = disabled, events govern the run)")
	seedFlag         = flag.Uint64("seed", 0, "RNG seed (0 = use the config value)")
	snapshotInterval = flag.Int64("snapshot-interval", 0, "write a snapshot every N events (0 = snapshots disabled)")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		var cfgErr *engine.ConfigError
		if errors.As(err, &cfgErr) {
			slog.Error("configuration error", "err", err)
			os.Exit(1)
		}
		slog.Error("simulation error", "err", err)
		os.Exit(2)
	}
}

func run() error {
	cfg, err := config.Load(*inputPath)
	if err != nil {
		return &engine.ConfigError{Reason: "loading configuration", Err: err}
	}

	seed := cfg.Run.Seed
	if *seedFlag != 0 {
		seed = *seedFlag
	}
	rng := rand.New(rand.NewPCG(seed, seed^0xd1b54a32d192ed03))

	particles, err := buildParticles(cfg, rng)
	if err != nil {
		return err
	}
	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	boundary, err := buildBoundary(cfg)
	if err != nil {
		return err
	}

	grid := cellgrid.New(vector.Vec3{X: cfg.Run.BoxLength.X, Y: cfg.Run.BoxLength.Y, Z: cfg.Run.BoxLength.Z}, cfg.Run.GridCellSize)

	var f fel.FEL
	switch cfg.Scheduler.Derived.Sorter {
	case kind.CalendarSorter:
		f = fel.NewCalendarFEL(len(particles)+1, cfg.Scheduler.BucketWidth, cfg.Scheduler.CapacityHint)
	default:
		f = fel.NewHeapFEL(len(particles)+1, cfg.Scheduler.CapacityHint)
	}

	sim, err := engine.NewSimulation(particles, registry, grid, f, boundary, rng)
	if err != nil {
		return err
	}
	sim.CapEpsilon = cfg.Run.CapEpsilon
	sim.MaxCaptureDesyncs = cfg.Run.MaxCaptureDesyncs

	if cfg.Systems.Thermostat.Enabled {
		th := process.NewThermostat(cfg.Systems.Thermostat.Nu, cfg.Systems.Thermostat.Temperature, seed)
		sim.EnableThermostat(th, cfg.Systems.Thermostat.Temperature)
	}
	if cfg.Systems.Recalculate.Enabled {
		sim.EnableRecalculate(cfg.Systems.Recalculate.Every, cfg.Systems.Recalculate.Factor)
	}
	if *untilTime > 0 {
		sim.EnableHalt(*untilTime)
	} else if cfg.Run.UntilTime > 0 {
		sim.EnableHalt(cfg.Run.UntilTime)
	}

	out, err := telemetry.NewOutput(*outputDir)
	if err != nil {
		return fmt.Errorf("setting up output: %w", err)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Warn("writing configuration snapshot failed", "err", err)
	}

	collector := telemetry.NewCollector(cfg.Telemetry.WindowEvents)
	perfCollector := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	bookmarks := telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Telemetry.ExpectThermostat)

	sim.Hooks = telemetry.Hooks{OnEvent: func(e particle.Event, data telemetry.EventData) {
		collector.Observe(e.Kind, e.T, data)
	}}

	target := cfg.Run.UntilEvents
	if *untilEvents > 0 {
		target = *untilEvents
	}
	if target <= 0 {
		target = math.MaxInt64
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for sim.EventsElapsed() < target {
		perfCollector.StartStep()
		chunk := target - sim.EventsElapsed()
		if chunk > cfg.Telemetry.WindowEvents {
			chunk = cfg.Telemetry.WindowEvents
		}
		if snap := *snapshotInterval; snap > 0 {
			if next := snap - sim.EventsElapsed()%snap; chunk > next {
				chunk = next
			}
		}
		if err := sim.Run(ctx, sim.EventsElapsed()+chunk); err != nil {
			return err
		}
		perfCollector.EndStep()

		if collector.ShouldFlush() {
			stats := collector.Flush(sim.Now())
			stats.LogStats()
			if err := out.WriteTelemetry(stats); err != nil {
				slog.Warn("writing telemetry failed", "err", err)
			}
			for _, b := range bookmarks.Check(stats, sim.EventsElapsed()) {
				b.LogBookmark()
			}

			perfStats := perfCollector.Stats()
			if err := out.WritePerf(perfStats.ToCSV(sim.EventsElapsed())); err != nil {
				slog.Warn("writing perf stats failed", "err", err)
			}
		}
		if snap := *snapshotInterval; snap > 0 && sim.EventsElapsed()%snap == 0 {
			if err := writeSnapshot(sim, seed, out.Dir()); err != nil {
				slog.Warn("writing snapshot failed", "err", err)
			}
		}
		if ctx.Err() != nil || (sim.HaltAt > 0 && sim.Now() >= sim.HaltAt) {
			break
		}
	}

	slog.Info("run complete", "events_elapsed", sim.EventsElapsed(), "sim_time", sim.Now())
	return nil
}

// buildParticles expands each species into Count particles on a simple
// cubic lattice inside the configured box, with velocities drawn from a
// Maxwell-Boltzmann distribution at the thermostat's configured temperature
// (at rest when that temperature is zero; whether the thermostat is enabled
// is not consulted).
func buildParticles(cfg *config.Config, rng *rand.Rand) ([]particle.Particle, error) {
	total := cfg.Derived.TotalCount
	if total <= 0 {
		return nil, &engine.ConfigError{Reason: "no particles configured"}
	}

	temperature := cfg.Systems.Thermostat.Temperature
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(rng.Uint64(), rng.Uint64())}

	side := int(math.Ceil(math.Cbrt(float64(total))))
	spacingX := cfg.Run.BoxLength.X / float64(side)
	spacingY := cfg.Run.BoxLength.Y / float64(side)
	spacingZ := cfg.Run.BoxLength.Z / float64(side)

	particles := make([]particle.Particle, 0, total)
	id := 0
	for _, sp := range cfg.Particles {
		for n := 0; n < sp.Count; n++ {
			ix := id % side
			iy := (id / side) % side
			iz := id / (side * side)

			sigma := 0.0
			if sp.Mass > 0 && temperature > 0 {
				sigma = math.Sqrt(temperature / sp.Mass)
			}
			p := particle.Particle{
				ID:   id,
				Mass: sp.Mass,
				Pos: vector.Vec3{
					X: (float64(ix) + 0.5) * spacingX,
					Y: (float64(iy) + 0.5) * spacingY,
					Z: (float64(iz) + 0.5) * spacingZ,
				},
				Vel:        vector.Vec3{X: sigma * normal.Rand(), Y: sigma * normal.Rand(), Z: sigma * normal.Rand()},
				Diameter:   sp.Diameter,
				Diameter0:  sp.Diameter,
				GrowthRate: sp.GrowthRate,
				Species:    sp.Derived.PairType,
			}
			particles = append(particles, p)
			id++
		}
	}
	return particles, nil
}

// buildRegistry constructs the interaction governing each configured pair
// type, discretising a Lennard-Jones potential via potential.Stepper when
// one is given, or using a directly-specified stepped table otherwise.
func buildRegistry(cfg *config.Config) (*interaction.Registry, error) {
	registry := interaction.NewRegistry()
	for _, in := range cfg.Interactions {
		var built interaction.Interaction
		switch in.Derived.Kind {
		case kind.HardSphere:
			built = interaction.NewHardSphere()
		case kind.Compressing:
			built = interaction.Compressing{}
		case kind.SquareWell, kind.Stepped, kind.BondedSquareWell:
			table, err := buildTable(in)
			if err != nil {
				return nil, &engine.ConfigError{Reason: "building potential table", Err: err}
			}
			switch in.Derived.Kind {
			case kind.SquareWell:
				built = interaction.NewSquareWell(table)
			case kind.BondedSquareWell:
				built = interaction.NewBondedSquareWell(table)
			default:
				built = interaction.NewStepped(table)
			}
		default:
			return nil, &engine.ConfigError{Reason: fmt.Sprintf("unsupported interaction kind %v", in.Derived.Kind)}
		}
		registry.Register(in.Derived.PairTypeA, in.Derived.PairTypeB, built)
	}
	return registry, nil
}

func buildTable(in config.InteractionConfig) (*potential.Table, error) {
	if in.LennardJones != nil {
		lj := in.LennardJones
		stepper := potential.Stepper{
			Pot:        potential.LennardJones{Sigma: lj.Sigma, Epsilon: lj.Epsilon, Cutoff: lj.CutOff},
			RadialMode: lj.Derived.RMode,
			EnergyMode: lj.Derived.UMode,
			AttSteps:   lj.AttractiveSteps,
			DeltaU:     lj.DeltaU,
			KT:         lj.KT,
			HardCoreR:  lj.HardCoreR,
		}
		return stepper.Build(), nil
	}
	if len(in.Steps) == 0 {
		return nil, fmt.Errorf("interaction (%s,%s) needs either steps or lennard_jones", in.SpeciesA, in.SpeciesB)
	}
	shells := make([]potential.Shell, len(in.Steps))
	for i, step := range in.Steps {
		prevE := 0.0
		if i > 0 {
			prevE = shells[i-1].E
		}
		shells[i] = potential.Shell{
			R:        step.R,
			E:        step.E,
			DeltaE:   step.E - prevE,
			HardCore: i == len(in.Steps)-1,
		}
	}
	return potential.NewFixedTable(shells), nil
}

func buildBoundary(cfg *config.Config) (vector.Boundary, error) {
	l := vector.Vec3{X: cfg.BC.L.X, Y: cfg.BC.L.Y, Z: cfg.BC.L.Z}
	switch cfg.BC.Derived.Kind {
	case kind.NoBoundary:
		return vector.None{}, nil
	case kind.Periodic:
		return vector.PeriodicBC{L: l}, nil
	case kind.LeesEdwards:
		return vector.LeesEdwardsBC{L: l, ShearRate: cfg.BC.ShearRate}, nil
	default:
		return nil, &engine.ConfigError{Reason: fmt.Sprintf("unsupported boundary kind %v", cfg.BC.Derived.Kind)}
	}
}

func writeSnapshot(sim *engine.Simulation, seed uint64, dir string) error {
	if dir == "" {
		return nil
	}
	states := make([]telemetry.ParticleState, len(sim.Particles))
	for i := range sim.Particles {
		sim.Particles[i].Stream(sim.Now())
		states[i] = telemetry.ToParticleState(&sim.Particles[i])
	}
	captures := sim.Captures.All()
	captured := make([]telemetry.CapturedPair, 0, len(captures))
	for pair, shell := range captures {
		captured = append(captured, telemetry.CapturedPair{A: pair.A, B: pair.B, Shell: shell})
	}

	snap := telemetry.Snapshot{
		Version:       telemetry.SnapshotVersion,
		Seed:          seed,
		T:             sim.Now(),
		EventsElapsed: sim.EventsElapsed(),
		Particles:     states,
		Captures:      captured,
	}
	_, err := telemetry.Save(snap, dir)
	return err
}
