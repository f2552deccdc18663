// Package telemetry hooks the event loop for windowed aggregate stats,
// CSV export and configuration/state snapshots (spec §6's "Output:
// telemetry stream" and "Output: configuration snapshot").
package telemetry

import "github.com/pthm-cable/edmd/particle"

// EventData carries the per-event measurements the engine computes
// alongside a fired particle.Event: the quantities a collector needs
// that aren't already on the Event itself.
type EventData struct {
	KineticEnergy   float64 // system kinetic energy immediately after resolution
	PotentialEnergy float64 // system potential energy (sum over captured pairs)
	CapturedPairs   int     // current size of the capture map
	Reflected       bool    // true if a PairInteraction event reflected instead of transitioning
	Desynced        bool    // true if this event was discarded by CaptureDesync recovery
}

// Hooks lets the engine report per-event telemetry without depending on
// any particular collector implementation.
type Hooks struct {
	OnEvent func(e particle.Event, data EventData)
}

func (h Hooks) fire(e particle.Event, data EventData) {
	if h.OnEvent != nil {
		h.OnEvent(e, data)
	}
}
