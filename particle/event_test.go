package particle

import (
	"testing"

	"github.com/pthm-cable/edmd/kind"
)

func TestNewPairEvent(t *testing.T) {
	e := NewPairEvent(1.5, 2, 5, 10, 20, 1, 2)
	if e.Kind != kind.PairInteraction {
		t.Fatalf("expected kind.PairInteraction, got %v", e.Kind)
	}
	if e.A != 2 || e.B != 5 || e.TokenA != 10 || e.TokenB != 20 {
		t.Fatalf("unexpected event fields: %+v", e)
	}
	if e.Payload.ShellFrom != 1 || e.Payload.ShellTo != 2 {
		t.Fatalf("unexpected payload: %+v", e.Payload)
	}
}

func TestNewCellCrossEvent(t *testing.T) {
	e := NewCellCrossEvent(0.3, 4, 7, 2)
	if e.Kind != kind.CellCross {
		t.Fatalf("expected kind.CellCross, got %v", e.Kind)
	}
	if e.A != 4 || e.B != NoParticle || e.TokenA != 7 {
		t.Fatalf("unexpected event fields: %+v", e)
	}
	if e.Payload.CellFace != 2 {
		t.Fatalf("expected CellFace 2, got %d", e.Payload.CellFace)
	}
}

func TestNewSystemEvent(t *testing.T) {
	e := NewSystemEvent(9.0, kind.Halt, NoParticle, 0)
	if e.Kind != kind.Halt || e.A != NoParticle || e.B != NoParticle {
		t.Fatalf("unexpected halt event: %+v", e)
	}
}
