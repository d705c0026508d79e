// Package grid converts the operating-hours strings in a SolverConfig into
// a uniform integer slot grid and back, per SPEC_FULL.md §4.1.
//
// Grounded on original_source/solver/solver.py's time_to_minutes,
// minutes_to_time, slot_to_time, and time_to_slot helpers.
package grid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
)

// LunchSlots is the fixed length of a lunch interval: 30 minutes.
const LunchSlots = 2

// Grid is the frozen time grid for one solve: operating hours expressed as
// slot offsets, plus the lunch start window.
type Grid struct {
	SlotMinutes      int
	OperatingStartMin int
	NumSlots         int
	LunchWindowStart int
	LunchWindowEnd   int
}

// New builds a Grid from a SolverConfig. Malformed time strings in the
// operating-hours fields are a configuration error, not a per-entity
// malformed-input case (§7), so New returns an error rather than silently
// dropping anything.
func New(cfg domain.SolverConfig) (Grid, error) {
	slotMinutes := cfg.SlotSizeMinutes
	if slotMinutes <= 0 {
		slotMinutes = 15
	}

	startMin, err := TimeToMinutes(cfg.OperatingHoursStart)
	if err != nil {
		return Grid{}, fmt.Errorf("operatingHoursStart: %w", err)
	}
	endMin, err := TimeToMinutes(cfg.OperatingHoursEnd)
	if err != nil {
		return Grid{}, fmt.Errorf("operatingHoursEnd: %w", err)
	}
	if endMin <= startMin {
		return Grid{}, fmt.Errorf("operatingHoursEnd (%s) must be after operatingHoursStart (%s)", cfg.OperatingHoursEnd, cfg.OperatingHoursStart)
	}

	numSlots := (endMin - startMin) / slotMinutes

	g := Grid{
		SlotMinutes:       slotMinutes,
		OperatingStartMin: startMin,
		NumSlots:          numSlots,
	}

	lunchStart, err := TimeToMinutes(cfg.IdealLunchWindowStart)
	if err != nil {
		return Grid{}, fmt.Errorf("idealLunchWindowStart: %w", err)
	}
	lunchEndForStart, err := TimeToMinutes(cfg.IdealLunchWindowEndForStart)
	if err != nil {
		return Grid{}, fmt.Errorf("idealLunchWindowEndForStart: %w", err)
	}

	windowStart := g.TimeToSlot(minutesToClock(lunchStart))
	windowEnd := g.TimeToSlot(minutesToClock(lunchEndForStart))
	if maxWindowEnd := numSlots - LunchSlots; windowEnd > maxWindowEnd {
		windowEnd = maxWindowEnd
	}
	if windowEnd < windowStart {
		windowEnd = windowStart
	}
	g.LunchWindowStart = windowStart
	g.LunchWindowEnd = windowEnd

	return g, nil
}

// TimeToMinutes parses a zero-padded 24-hour "HH:MM" string into
// minutes-past-midnight.
func TimeToMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", clock)
	}
	return h*60 + m, nil
}

// MinutesToTime formats minutes-past-midnight as zero-padded "HH:MM".
func MinutesToTime(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

func minutesToClock(minutes int) string {
	return MinutesToTime(minutes)
}

// TimeToSlot converts a clock string to a slot index relative to operating
// start. Slots may fall outside [0, NumSlots]; callers that need a bounded
// result clamp explicitly.
func (g Grid) TimeToSlot(clock string) int {
	m, err := TimeToMinutes(clock)
	if err != nil {
		return 0
	}
	return (m - g.OperatingStartMin) / g.SlotMinutes
}

// SlotToTime converts a slot index (relative to operating start) back to a
// zero-padded clock string.
func (g Grid) SlotToTime(slot int) string {
	return MinutesToTime(g.OperatingStartMin + slot*g.SlotMinutes)
}

// CeilSlots rounds a minute duration up to whole slots.
func (g Grid) CeilSlots(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return (minutes + g.SlotMinutes - 1) / g.SlotMinutes
}

// FloorSlots rounds a minute duration down to whole slots.
func (g Grid) FloorSlots(minutes int) int {
	if minutes <= 0 {
		return 0
	}
	return minutes / g.SlotMinutes
}

// Clamp restricts a slot index to [0, NumSlots].
func (g Grid) Clamp(slot int) int {
	if slot < 0 {
		return 0
	}
	if slot > g.NumSlots {
		return g.NumSlots
	}
	return slot
}
