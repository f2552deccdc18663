package telemetry

import (
	"log/slog"
	"math"
	"sort"
)

// WindowStats holds aggregated statistics over a window of events (spec
// §6's telemetry stream, one CSV row per window).
type WindowStats struct {
	WindowStartEvent int64   `csv:"-"`
	WindowEndEvent   int64   `csv:"window_end_event"`
	SimTime          float64 `csv:"sim_time"`

	PairInteractions int `csv:"pair_interactions"`
	CellCrossings    int `csv:"cell_crossings"`
	ThermostatFires  int `csv:"thermostat_fires"`
	Reflections      int `csv:"reflections"`
	CaptureDesyncs   int `csv:"capture_desyncs"`

	MeanKineticEnergy   float64 `csv:"mean_kinetic_energy"`
	MeanPotentialEnergy float64 `csv:"mean_potential_energy"`
	TotalEnergy         float64 `csv:"total_energy"`
	EnergyDrift         float64 `csv:"energy_drift"`

	CapturedPairsMean float64 `csv:"captured_pairs_mean"`
	CapturedPairsEnd  int     `csv:"captured_pairs_end"`

	EventRateP10 float64 `csv:"event_dt_p10"`
	EventRateP50 float64 `csv:"event_dt_p50"`
	EventRateP90 float64 `csv:"event_dt_p90"`
}

// Percentile returns the p-th percentile (p in [0,1]) of an already
// sorted slice via linear interpolation. Returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeMeanAndPercentiles reduces a slice of samples to a mean and the
// 10th/50th/90th percentiles.
func ComputeMeanAndPercentiles(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_end_event", s.WindowEndEvent),
		slog.Float64("sim_time", s.SimTime),
		slog.Int("pair_interactions", s.PairInteractions),
		slog.Int("cell_crossings", s.CellCrossings),
		slog.Int("thermostat_fires", s.ThermostatFires),
		slog.Int("reflections", s.Reflections),
		slog.Int("capture_desyncs", s.CaptureDesyncs),
		slog.Float64("mean_kinetic_energy", s.MeanKineticEnergy),
		slog.Float64("mean_potential_energy", s.MeanPotentialEnergy),
		slog.Float64("total_energy", s.TotalEnergy),
		slog.Float64("energy_drift", s.EnergyDrift),
		slog.Float64("captured_pairs_mean", s.CapturedPairsMean),
		slog.Int("captured_pairs_end", s.CapturedPairsEnd),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s.LogValue())
}

// EnergyDriftBound returns the spec §8 property-1 bound
// 1e-9*sqrt(eventsElapsed) against which EnergyDrift should be compared.
func EnergyDriftBound(eventsElapsed int64) float64 {
	return 1e-9 * math.Sqrt(float64(eventsElapsed))
}
