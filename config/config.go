// Package config provides configuration loading and access for the
// simulation: the YAML tree for particle species, pair interactions,
// system processes, boundary conditions, scheduler discipline and
// ensemble that the external layer feeds into the engine.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/edmd/kind"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every parameter needed to build and run a Simulation.
type Config struct {
	Particles    []SpeciesConfig     `yaml:"particles"`
	Interactions []InteractionConfig `yaml:"interactions"`
	Systems      SystemsConfig       `yaml:"systems"`
	BC           BCConfig            `yaml:"bc"`
	Scheduler    SchedulerConfig     `yaml:"scheduler"`
	Ensemble     string              `yaml:"ensemble"`
	Run          RunConfig           `yaml:"run"`
	Telemetry    TelemetryConfig     `yaml:"telemetry"`

	// Derived values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// SpeciesConfig describes one group of identically-parameterised
// particles (spec §6's Simulation/Particles node).
type SpeciesConfig struct {
	Name       string  `yaml:"name"`
	PairType   string  `yaml:"pair_type"` // Default | Bonded — the registry-lookup tag (spec §9: a closed variant, not a dynamic species table)
	Count      int     `yaml:"count"`
	Mass       float64 `yaml:"mass"`
	Diameter   float64 `yaml:"diameter"`
	GrowthRate float64 `yaml:"growth_rate"` // γ_c; nonzero only under Compression dynamics
	Dynamics   string  `yaml:"dynamics"`    // Newtonian | NewtonianMC | Compression

	Derived SpeciesDerivedConfig `yaml:"-"`
}

// SpeciesDerivedConfig holds SpeciesConfig's parsed tagged-variant form.
type SpeciesDerivedConfig struct {
	Dynamics kind.Dynamics
	PairType kind.PairType
}

// StepConfig is one row of a directly-specified stepped-potential table
// (spec §6's `<Step R=".." E=".."/>` children).
type StepConfig struct {
	R float64 `yaml:"r"`
	E float64 `yaml:"e"`
}

// LennardJonesConfig discretises a continuous Lennard-Jones potential
// into a stepped table (spec §6's `Type="LennardJones"` node).
type LennardJonesConfig struct {
	Sigma           float64 `yaml:"sigma"`
	Epsilon         float64 `yaml:"epsilon"`
	CutOff          float64 `yaml:"cut_off"`
	AttractiveSteps int     `yaml:"attractive_steps"`
	UMode           string  `yaml:"u_mode"` // Midpoint | Left | Right | Volume | Virial
	RMode           string  `yaml:"r_mode"` // DeltaR | DeltaU
	HardCoreR       float64 `yaml:"hard_core_r"`
	DeltaU          float64 `yaml:"delta_u"` // target shell spacing under RMode: DeltaU
	KT              float64 `yaml:"kt"`      // temperature, used by UMode: Virial

	Derived LennardJonesDerivedConfig `yaml:"-"`
}

// LennardJonesDerivedConfig holds LennardJonesConfig's parsed form.
type LennardJonesDerivedConfig struct {
	UMode kind.EnergyMode
	RMode kind.RadialMode
}

// InteractionConfig binds an interaction model to a pair of registry tags
// (spec §6's per-pair-type Simulation/Interactions node; SpeciesA/SpeciesB
// name PairType tags — Default or Bonded — not arbitrary species, since
// the registry is keyed by the closed PairType variant).
type InteractionConfig struct {
	SpeciesA string `yaml:"species_a"`
	SpeciesB string `yaml:"species_b"`
	Kind     string `yaml:"kind"` // HardSphere | SquareWell | Stepped | BondedSquareWell | Compressing

	Steps        []StepConfig        `yaml:"steps"`
	LennardJones *LennardJonesConfig `yaml:"lennard_jones"`

	Derived InteractionDerivedConfig `yaml:"-"`
}

// InteractionDerivedConfig holds InteractionConfig's parsed form.
type InteractionDerivedConfig struct {
	Kind                 kind.Interaction
	PairTypeA, PairTypeB kind.PairType
}

// ThermostatConfig configures the Andersen thermostat (NVT/NVShear
// ensembles, spec §6's Simulation/Systems node).
type ThermostatConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Nu          float64 `yaml:"nu"`
	Temperature float64 `yaml:"temperature"`
}

// RecalculateConfig configures the periodic compression-rescale
// milestone (spec §10's supplemented Compression-rescaling feature).
type RecalculateConfig struct {
	Enabled bool    `yaml:"enabled"`
	Every   float64 `yaml:"every"`
	Factor  float64 `yaml:"factor"`
}

// SystemsConfig holds the non-pair system processes (spec §6).
type SystemsConfig struct {
	Thermostat  ThermostatConfig  `yaml:"thermostat"`
	Recalculate RecalculateConfig `yaml:"recalculate"`
}

// BCConfig selects the boundary-condition discipline (spec §6's
// Simulation/BC node).
type BCConfig struct {
	Kind      string  `yaml:"kind"` // None | Periodic | LeesEdwards
	L         Vec3    `yaml:"l"`
	ShearRate float64 `yaml:"shear_rate"`

	Derived BCDerivedConfig `yaml:"-"`
}

// BCDerivedConfig holds BCConfig's parsed form.
type BCDerivedConfig struct {
	Kind kind.Boundary
}

// Vec3 is a YAML-friendly three-component vector, distinct from
// vector.Vec3 so this package never imports the simulation's hot-path
// types.
type Vec3 struct {
	X, Y, Z float64
}

// SchedulerConfig selects the FEL discipline (spec §6's
// Simulation/Scheduler/Sorter node, the resolved Open Question of
// exposing both disciplines behind one interface).
type SchedulerConfig struct {
	Sorter       string  `yaml:"sorter"` // heap | calendar
	CapacityHint int     `yaml:"capacity_hint"`
	BucketWidth  float64 `yaml:"bucket_width"` // CalendarFEL only: mean inter-event time estimate

	Derived SchedulerDerivedConfig `yaml:"-"`
}

// SchedulerDerivedConfig holds SchedulerConfig's parsed form.
type SchedulerDerivedConfig struct {
	Sorter kind.Sorter
}

// RunConfig holds the parameters that govern one invocation of the
// engine rather than the physical system itself (spec §6's cmd/edmd
// flags, mirrored into config so a run is fully reproducible from one
// file).
type RunConfig struct {
	UntilEvents       int64   `yaml:"until_events"`
	UntilTime         float64 `yaml:"until_time"`
	Seed              uint64  `yaml:"seed"`
	GridCellSize      float64 `yaml:"grid_cell_size"`
	CapEpsilon        float64 `yaml:"cap_epsilon"`
	BoxLength         Vec3    `yaml:"box_length"`
	MaxCaptureDesyncs int     `yaml:"max_capture_desyncs"` // 0 = unlimited, spec §7's default
}

// TelemetryConfig holds telemetry windowing parameters.
type TelemetryConfig struct {
	WindowEvents        int64 `yaml:"window_events"`
	BookmarkHistorySize int   `yaml:"bookmark_history_size"`
	ExpectThermostat    bool  `yaml:"expect_thermostat"`
	PerfWindow          int   `yaml:"perf_window"`
}

// DerivedConfig holds top-level values derived from the loaded config.
type DerivedConfig struct {
	Ensemble    kind.Ensemble
	TotalCount  int // sum of every species' Count
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults, and validates + derives its tagged-variant fields.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolve parses every tagged-variant string field into its kind enum,
// computes derived totals, and rejects unknown tags up front — spec §7
// names "unknown type tag" as a fatal ConfigError, and this is the point
// the external layer's string tags become engine.ConfigError material.
func (c *Config) resolve() error {
	ensemble, err := parseEnsemble(c.Ensemble)
	if err != nil {
		return err
	}
	c.Derived.Ensemble = ensemble

	total := 0
	for i := range c.Particles {
		sp := &c.Particles[i]
		dyn, err := parseDynamics(sp.Dynamics)
		if err != nil {
			return fmt.Errorf("species %q: %w", sp.Name, err)
		}
		sp.Derived.Dynamics = dyn

		pt, err := parsePairType(sp.PairType)
		if err != nil {
			return fmt.Errorf("species %q: %w", sp.Name, err)
		}
		sp.Derived.PairType = pt

		total += sp.Count
	}
	c.Derived.TotalCount = total

	bcKind, err := parseBoundary(c.BC.Kind)
	if err != nil {
		return err
	}
	c.BC.Derived.Kind = bcKind

	sorter, err := parseSorter(c.Scheduler.Sorter)
	if err != nil {
		return err
	}
	c.Scheduler.Derived.Sorter = sorter

	for i := range c.Interactions {
		in := &c.Interactions[i]
		ik, err := parseInteraction(in.Kind)
		if err != nil {
			return fmt.Errorf("interaction (%s,%s): %w", in.SpeciesA, in.SpeciesB, err)
		}
		in.Derived.Kind = ik

		ptA, err := parsePairType(in.SpeciesA)
		if err != nil {
			return fmt.Errorf("interaction species_a: %w", err)
		}
		ptB, err := parsePairType(in.SpeciesB)
		if err != nil {
			return fmt.Errorf("interaction species_b: %w", err)
		}
		in.Derived.PairTypeA, in.Derived.PairTypeB = ptA, ptB

		if in.LennardJones != nil {
			lj := in.LennardJones
			umode, err := parseEnergyMode(lj.UMode)
			if err != nil {
				return fmt.Errorf("interaction (%s,%s) lennard_jones: %w", in.SpeciesA, in.SpeciesB, err)
			}
			rmode, err := parseRadialMode(lj.RMode)
			if err != nil {
				return fmt.Errorf("interaction (%s,%s) lennard_jones: %w", in.SpeciesA, in.SpeciesB, err)
			}
			lj.Derived.UMode = umode
			lj.Derived.RMode = rmode
		}
	}

	return nil
}

func parseEnsemble(s string) (kind.Ensemble, error) {
	switch s {
	case "NVE":
		return kind.NVE, nil
	case "NVT":
		return kind.NVT, nil
	case "NVShear":
		return kind.NVShear, nil
	case "NECompression":
		return kind.NECompression, nil
	case "NTCompression":
		return kind.NTCompression, nil
	default:
		return 0, fmt.Errorf("unknown ensemble %q", s)
	}
}

func parseDynamics(s string) (kind.Dynamics, error) {
	switch s {
	case "", "Newtonian":
		return kind.Newtonian, nil
	case "NewtonianMC":
		return kind.NewtonianMC, nil
	case "Compression":
		return kind.CompressionDynamics, nil
	default:
		return 0, fmt.Errorf("unknown dynamics %q", s)
	}
}

func parseBoundary(s string) (kind.Boundary, error) {
	switch s {
	case "", "None":
		return kind.NoBoundary, nil
	case "Periodic":
		return kind.Periodic, nil
	case "LeesEdwards":
		return kind.LeesEdwards, nil
	default:
		return 0, fmt.Errorf("unknown boundary condition %q", s)
	}
}

func parseSorter(s string) (kind.Sorter, error) {
	switch s {
	case "", "heap":
		return kind.HeapSorter, nil
	case "calendar":
		return kind.CalendarSorter, nil
	default:
		return 0, fmt.Errorf("unknown scheduler sorter %q", s)
	}
}

func parsePairType(s string) (kind.PairType, error) {
	switch s {
	case "", "Default":
		return kind.Default, nil
	case "Bonded":
		return kind.Bonded, nil
	default:
		return 0, fmt.Errorf("unknown pair type %q", s)
	}
}

func parseInteraction(s string) (kind.Interaction, error) {
	switch s {
	case "HardSphere":
		return kind.HardSphere, nil
	case "SquareWell":
		return kind.SquareWell, nil
	case "Stepped":
		return kind.Stepped, nil
	case "BondedSquareWell":
		return kind.BondedSquareWell, nil
	case "Compressing":
		return kind.Compressing, nil
	default:
		return 0, fmt.Errorf("unknown interaction kind %q", s)
	}
}

func parseEnergyMode(s string) (kind.EnergyMode, error) {
	switch s {
	case "", "Midpoint":
		return kind.Midpoint, nil
	case "Left":
		return kind.Left, nil
	case "Right":
		return kind.Right, nil
	case "Volume":
		return kind.Volume, nil
	case "Virial":
		return kind.Virial, nil
	default:
		return 0, fmt.Errorf("unknown energy mode %q", s)
	}
}

func parseRadialMode(s string) (kind.RadialMode, error) {
	switch s {
	case "", "DeltaR":
		return kind.DeltaR, nil
	case "DeltaU":
		return kind.DeltaU, nil
	default:
		return 0, fmt.Errorf("unknown radial mode %q", s)
	}
}
