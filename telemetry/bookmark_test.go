package telemetry

import "testing"

func TestBookmarkDetector_EnergyDriftExceeded(t *testing.T) {
	bd := NewBookmarkDetector(10, false)

	bookmarks := bd.Check(WindowStats{WindowEndEvent: 1000, EnergyDrift: 1.0}, 1000)

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkEnergyDriftExceeded {
			found = true
		}
	}
	if !found {
		t.Error("expected energy_drift_exceeded bookmark for a drift far past the bound")
	}
}

func TestBookmarkDetector_CaptureSurge(t *testing.T) {
	bd := NewBookmarkDetector(10, false)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndEvent: int64(i * 100), CapturedPairsMean: 2}, int64(i*100))
	}

	bookmarks := bd.Check(WindowStats{WindowEndEvent: 600, CapturedPairsMean: 10}, 600)

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkCaptureSurge {
			found = true
		}
	}
	if !found {
		t.Error("expected capture_surge bookmark when captured pairs jump well past the rolling average")
	}
}

func TestBookmarkDetector_ReflectionSpike(t *testing.T) {
	bd := NewBookmarkDetector(10, false)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndEvent: int64(i * 100), Reflections: 1}, int64(i*100))
	}

	bookmarks := bd.Check(WindowStats{WindowEndEvent: 600, Reflections: 20}, 600)

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkReflectionSpike {
			found = true
		}
	}
	if !found {
		t.Error("expected reflection_spike bookmark")
	}
}

func TestBookmarkDetector_ThermostatSilent(t *testing.T) {
	bd := NewBookmarkDetector(4, true)

	var bookmarks []Bookmark
	for i := 0; i < 4; i++ {
		bookmarks = bd.Check(WindowStats{WindowEndEvent: int64(i * 100)}, int64(i*100))
	}

	found := false
	for _, bm := range bookmarks {
		if bm.Type == BookmarkThermostatSilent {
			found = true
		}
	}
	if !found {
		t.Error("expected thermostat_silent bookmark after historySize consecutive silent windows")
	}
}

func TestBookmarkDetector_ThermostatFiringSuppressesSilentBookmark(t *testing.T) {
	bd := NewBookmarkDetector(4, true)

	var bookmarks []Bookmark
	for i := 0; i < 4; i++ {
		bookmarks = bd.Check(WindowStats{WindowEndEvent: int64(i * 100), ThermostatFires: 1}, int64(i*100))
	}

	for _, bm := range bookmarks {
		if bm.Type == BookmarkThermostatSilent {
			t.Error("did not expect thermostat_silent bookmark when the thermostat is firing")
		}
	}
}
