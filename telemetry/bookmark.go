package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the kind of notable moment a BookmarkDetector
// flagged.
type BookmarkType string

const (
	BookmarkEnergyDriftExceeded BookmarkType = "energy_drift_exceeded"
	BookmarkCaptureSurge        BookmarkType = "capture_surge"
	BookmarkReflectionSpike     BookmarkType = "reflection_spike"
	BookmarkThermostatSilent    BookmarkType = "thermostat_silent"
)

// Bookmark is an automatically triggered marker of a notable simulation
// moment, for later inspection alongside the telemetry CSV.
type Bookmark struct {
	Type        BookmarkType
	EventsAt    int64
	Description string
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"events_at", b.EventsAt,
		"description", b.Description,
	)
}

// BookmarkDetector scans consecutive WindowStats for conditions worth
// flagging: drift beyond the property-1 bound, a surge in captured
// pairs, a spike in reflections, or a thermostat configured to fire that
// never does (grounded on the teacher's telemetry.BookmarkDetector, with
// ecological triggers replaced by thermodynamic ones).
type BookmarkDetector struct {
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	windowsSinceThermostatFire int
	expectThermostat           bool
}

// NewBookmarkDetector creates a detector with the given rolling-history
// size. expectThermostat enables the thermostat-silent check.
func NewBookmarkDetector(historySize int, expectThermostat bool) *BookmarkDetector {
	if historySize < 4 {
		historySize = 4
	}
	return &BookmarkDetector{
		history:          make([]WindowStats, historySize),
		historySize:      historySize,
		expectThermostat: expectThermostat,
	}
}

// Check analyzes the latest window and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats, eventsElapsed int64) []Bookmark {
	var bookmarks []Bookmark

	if bound := EnergyDriftBound(eventsElapsed); stats.EnergyDrift != 0 && absf(stats.EnergyDrift) > bound {
		bookmarks = append(bookmarks, Bookmark{
			Type:     BookmarkEnergyDriftExceeded,
			EventsAt: stats.WindowEndEvent,
			Description: fmt.Sprintf("energy drift %.3e exceeds bound %.3e at %d events",
				stats.EnergyDrift, bound, eventsElapsed),
		})
	}

	if history := bd.getHistory(); len(history) >= 3 {
		var avgCaptured float64
		for _, h := range history {
			avgCaptured += h.CapturedPairsMean
		}
		avgCaptured /= float64(len(history))
		if avgCaptured > 0 && stats.CapturedPairsMean > avgCaptured*2 {
			bookmarks = append(bookmarks, Bookmark{
				Type:     BookmarkCaptureSurge,
				EventsAt: stats.WindowEndEvent,
				Description: fmt.Sprintf("captured-pair mean %.1f is %.1fx rolling average (%.1f)",
					stats.CapturedPairsMean, stats.CapturedPairsMean/avgCaptured, avgCaptured),
			})
		}

		var avgReflections float64
		for _, h := range history {
			avgReflections += float64(h.Reflections)
		}
		avgReflections /= float64(len(history))
		if avgReflections > 0 && float64(stats.Reflections) > avgReflections*3 {
			bookmarks = append(bookmarks, Bookmark{
				Type:     BookmarkReflectionSpike,
				EventsAt: stats.WindowEndEvent,
				Description: fmt.Sprintf("reflections %d is %.1fx rolling average (%.1f)",
					stats.Reflections, float64(stats.Reflections)/avgReflections, avgReflections),
			})
		}
	}

	if bd.expectThermostat {
		if stats.ThermostatFires == 0 {
			bd.windowsSinceThermostatFire++
		} else {
			bd.windowsSinceThermostatFire = 0
		}
		if bd.windowsSinceThermostatFire == bd.historySize {
			bookmarks = append(bookmarks, Bookmark{
				Type:     BookmarkThermostatSilent,
				EventsAt: stats.WindowEndEvent,
				Description: fmt.Sprintf("thermostat configured but silent for %d consecutive windows",
					bd.historySize),
			})
		}
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
