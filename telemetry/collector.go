package telemetry

import "github.com/pthm-cable/edmd/kind"

// Collector accumulates per-event telemetry within an event-count window
// and reduces it to a WindowStats (grounded on the teacher's
// telemetry.Collector, rewindowed from ticks to events since EDMD has no
// fixed timestep).
type Collector struct {
	windowEvents int64

	windowStartEvent int64
	eventsSeen       int64

	pairInteractions int
	cellCrossings    int
	thermostatFires  int
	reflections      int
	captureDesyncs   int

	kineticSamples   []float64
	potentialSamples []float64
	capturedSamples  []float64
	eventDts         []float64

	lastEventTime float64
	energyAtStart float64
}

// NewCollector returns a Collector that flushes every windowEvents events.
func NewCollector(windowEvents int64) *Collector {
	if windowEvents < 1 {
		windowEvents = 1
	}
	return &Collector{windowEvents: windowEvents}
}

// Observe folds one fired event into the current window. Call this from
// telemetry.Hooks.OnEvent.
func (c *Collector) Observe(e kind.EventKind, t float64, data EventData) {
	if c.eventsSeen == c.windowStartEvent {
		c.energyAtStart = data.KineticEnergy + data.PotentialEnergy
	}
	if c.lastEventTime > 0 || c.eventsSeen > 0 {
		c.eventDts = append(c.eventDts, t-c.lastEventTime)
	}
	c.lastEventTime = t
	c.eventsSeen++

	switch e {
	case kind.PairInteraction:
		c.pairInteractions++
		if data.Reflected {
			c.reflections++
		}
	case kind.CellCross:
		c.cellCrossings++
	case kind.Thermostat:
		c.thermostatFires++
	}
	if data.Desynced {
		c.captureDesyncs++
	}

	c.kineticSamples = append(c.kineticSamples, data.KineticEnergy)
	c.potentialSamples = append(c.potentialSamples, data.PotentialEnergy)
	c.capturedSamples = append(c.capturedSamples, float64(data.CapturedPairs))
}

// RecordCaptureDesync records a recovered CaptureDesync (spec §7): these
// are expected drift, tallied but never fatal.
func (c *Collector) RecordCaptureDesync() {
	c.captureDesyncs++
}

// ShouldFlush reports whether windowEvents events have accumulated.
func (c *Collector) ShouldFlush() bool {
	return c.eventsSeen-c.windowStartEvent >= c.windowEvents
}

// Flush reduces the current window to a WindowStats and resets counters.
func (c *Collector) Flush(simTime float64) WindowStats {
	meanKE, _, _, _ := ComputeMeanAndPercentiles(c.kineticSamples)
	meanPE, _, _, _ := ComputeMeanAndPercentiles(c.potentialSamples)
	meanCap, _, _, _ := ComputeMeanAndPercentiles(c.capturedSamples)
	_, p10, p50, p90 := ComputeMeanAndPercentiles(c.eventDts)

	total := meanKE + meanPE
	var drift float64
	if c.energyAtStart != 0 {
		drift = (total - c.energyAtStart) / c.energyAtStart
	}

	endCaptured := 0
	if n := len(c.capturedSamples); n > 0 {
		endCaptured = int(c.capturedSamples[n-1])
	}

	stats := WindowStats{
		WindowStartEvent: c.windowStartEvent,
		WindowEndEvent:   c.eventsSeen,
		SimTime:          simTime,

		PairInteractions: c.pairInteractions,
		CellCrossings:    c.cellCrossings,
		ThermostatFires:  c.thermostatFires,
		Reflections:      c.reflections,
		CaptureDesyncs:   c.captureDesyncs,

		MeanKineticEnergy:   meanKE,
		MeanPotentialEnergy: meanPE,
		TotalEnergy:         total,
		EnergyDrift:         drift,

		CapturedPairsMean: meanCap,
		CapturedPairsEnd:  endCaptured,

		EventRateP10: p10,
		EventRateP50: p50,
		EventRateP90: p90,
	}

	c.windowStartEvent = c.eventsSeen
	c.pairInteractions = 0
	c.cellCrossings = 0
	c.thermostatFires = 0
	c.reflections = 0
	c.captureDesyncs = 0
	c.kineticSamples = c.kineticSamples[:0]
	c.potentialSamples = c.potentialSamples[:0]
	c.capturedSamples = c.capturedSamples[:0]
	c.eventDts = c.eventDts[:0]

	return stats
}
