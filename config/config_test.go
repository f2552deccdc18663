package config

import "testing"

func TestLoad_EmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Particles) == 0 {
		t.Fatal("expected at least one species in the embedded defaults")
	}
	if cfg.Derived.TotalCount != cfg.Particles[0].Count {
		t.Fatalf("expected Derived.TotalCount to sum species counts, got %d want %d",
			cfg.Derived.TotalCount, cfg.Particles[0].Count)
	}
	if cfg.Derived.Ensemble != 1 { // NVT
		t.Fatalf("expected the default ensemble to resolve to NVT, got %v", cfg.Derived.Ensemble)
	}
}

func TestLoad_UnknownEnsembleIsRejected(t *testing.T) {
	if _, err := parseEnsemble("Bogus"); err == nil {
		t.Fatal("expected an error for an unknown ensemble tag")
	}
}

func TestLoad_UnknownInteractionKindIsRejected(t *testing.T) {
	if _, err := parseInteraction("Bogus"); err == nil {
		t.Fatal("expected an error for an unknown interaction kind tag")
	}
}

func TestLoad_UnknownBoundaryIsRejected(t *testing.T) {
	if _, err := parseBoundary("Bogus"); err == nil {
		t.Fatal("expected an error for an unknown boundary kind tag")
	}
}

func TestLoad_DefaultDynamicsIsNewtonian(t *testing.T) {
	dyn, err := parseDynamics("")
	if err != nil {
		t.Fatalf("parseDynamics: %v", err)
	}
	if dyn != 0 { // kind.Newtonian
		t.Fatalf("expected the empty dynamics tag to default to Newtonian, got %v", dyn)
	}
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	if _, err := Load("/nonexistent/path/to/config.yaml"); err == nil {
		t.Fatal("expected an error reading a missing config file")
	}
}
