package analytics

import (
	"math"
	"sort"

	"github.com/samber/lo"
)

// DriverProgress is where a driver is on the circuit at some race time.
type DriverProgress struct {
	Driver string `json:"driver"`
	// Laps covered so far, fractional part included.
	Laps float64 `json:"laps"`
	// Fraction of the current lap, in [0,1).
	Fraction float64 `json:"fraction"`
	Position int     `json:"position"`
	// Total is the race distance in laps the driver can cover.
	Total    int  `json:"total"`
	Finished bool `json:"finished"`
	// RaceTime is the time the driver took to cover Total laps, set once
	// finished.
	RaceTime float64 `json:"raceTime,omitempty"`
}

// raceClock returns the duration of every lap, unknown laps taking the
// average timed lap. A driver without any timed lap has no clock.
func raceClock(laps []LapRecord) []float64 {
	times := LapTimeSeries(laps)
	known := lo.Filter(times, func(t float64, _ int) bool { return t > 0 })
	if len(known) == 0 {
		return nil
	}
	avg := lo.Sum(known) / float64(len(known))
	return lo.Map(times, func(t float64, _ int) float64 {
		if t <= 0 {
			return avg
		}
		return t
	})
}

func advance(times []float64, elapsed float64) float64 {
	if elapsed <= 0 {
		return 0
	}
	clock := 0.0
	for i, t := range times {
		if clock+t > elapsed {
			return float64(i) + (elapsed-clock)/t
		}
		clock += t
	}
	return float64(len(times))
}

// Progress returns how many laps a driver has covered after elapsed seconds
// of race time. Laps without a usable time are assumed to take as long as
// the driver's average timed lap. The result never exceeds the number of
// laps recorded, and stays 0 for a driver without any timed lap.
func Progress(laps []LapRecord, elapsed float64) float64 {
	return advance(raceClock(laps), elapsed)
}

// Positions computes every driver's progress at the same race time and
// orders them leader first. Drivers level on laps who have both finished
// are ordered by race time, any other tie by driver name. A driver without
// a timed lap cannot move and counts as finished from the start.
func Positions(field map[string][]LapRecord, elapsed float64) []DriverProgress {
	out := make([]DriverProgress, 0, len(field))
	for driver, laps := range field {
		times := raceClock(laps)
		p := advance(times, elapsed)
		_, frac := math.Modf(p)
		dp := DriverProgress{Driver: driver, Laps: p, Fraction: frac, Total: len(times)}
		if p >= float64(len(times)) {
			dp.Finished = true
			dp.RaceTime = lo.Sum(times)
		}
		out = append(out, dp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Laps != b.Laps {
			return a.Laps > b.Laps
		}
		if a.Finished && b.Finished && a.RaceTime != b.RaceTime {
			return a.RaceTime < b.RaceTime
		}
		return a.Driver < b.Driver
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}
