package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

// Output handles structured run output: a telemetry CSV, a perf CSV, and
// a configuration/state snapshot directory (spec §6's two Output
// requirements). Grounded on the teacher's telemetry.OutputManager; every
// method is safe to call on a nil receiver so telemetry stays optional.
type Output struct {
	dir           string
	telemetryFile *os.File
	perfFile      *os.File

	telemetryHeaderWritten bool
	perfHeaderWritten      bool
}

// NewOutput creates the output directory and its CSV files. A blank dir
// disables output: every method becomes a no-op.
func NewOutput(dir string) (*Output, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	o := &Output{dir: dir}

	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	o.telemetryFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		o.telemetryFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	o.perfFile = f

	return o, nil
}

// WriteConfig saves the run's effective configuration as YAML, the
// "configuration snapshot" output named in spec §6.
func (o *Output) WriteConfig(cfg any) error {
	if o == nil {
		return nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(o.dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("writing config.yaml: %w", err)
	}
	return nil
}

// WriteTelemetry appends a window stats record to telemetry.csv.
func (o *Output) WriteTelemetry(stats WindowStats) error {
	if o == nil {
		return nil
	}
	records := []WindowStats{stats}
	if !o.telemetryHeaderWritten {
		if err := gocsv.Marshal(records, o.telemetryFile); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		o.telemetryHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, o.telemetryFile); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf appends a performance record to perf.csv.
func (o *Output) WritePerf(stats PerfStatsCSV) error {
	if o == nil {
		return nil
	}
	records := []PerfStatsCSV{stats}
	if !o.perfHeaderWritten {
		if err := gocsv.Marshal(records, o.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		o.perfHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, o.perfFile); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// Dir returns the output directory, or "" if output is disabled.
func (o *Output) Dir() string {
	if o == nil {
		return ""
	}
	return o.dir
}

// Close flushes and closes every open output file.
func (o *Output) Close() error {
	if o == nil {
		return nil
	}
	var firstErr error
	if o.telemetryFile != nil {
		if err := o.telemetryFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if o.perfFile != nil {
		if err := o.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
