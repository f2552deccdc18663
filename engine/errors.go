package engine

import "fmt"

// ConfigError reports malformed input: unknown type tag, inconsistent
// units, a cutoff below the potential minimum. Fatal at startup (spec §7).
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// OverlapError reports particles found within the hard core, either at
// initialisation or after a predict-resolve cycle. Fatal unless overlap
// squash is explicitly enabled (spec §7).
type OverlapError struct {
	A, B int
	Sep  float64
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlap: particles %d and %d at separation %g", e.A, e.B, e.Sep)
}

// NumericalError reports a negative discriminant where positive was
// expected, or a NaN/Inf in vector arithmetic. Logged with full particle
// state and treated as fatal (spec §7 — "must not silently swallow this").
type NumericalError struct {
	Reason string
	A, B   int
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("numerical error: %s (particles %d, %d)", e.Reason, e.A, e.B)
}

// CaptureDesync reports a pair event whose recorded starting shell
// disagrees with the pair's shell in the live capture map at event time.
// Geometry is not consulted and ε_cap plays no part in the check; the
// event is discarded, both particles are repredicted, and the capture map
// is left as it is. Recovered inline by the engine
// and not surfaced to the caller by default (spec §7 — "expected
// drift"); returned from Run only once Simulation.MaxCaptureDesyncs is
// set and exceeded, since desyncs past a sane budget point at a genuine
// bug rather than ordinary floating-point drift.
type CaptureDesync struct {
	A, B  int
	Shell int
}

func (e *CaptureDesync) Error() string {
	return fmt.Sprintf("capture desync: pair (%d,%d) at captured shell %d disagrees with the event's recorded shell", e.A, e.B, e.Shell)
}
