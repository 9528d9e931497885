package analytics

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Pit stops are inferred from lap time jumps. A lap counts as a pit lap when
// it is both 30% and 5 seconds slower than the previous timed lap. This is an
// approximation: there is no pit lane telemetry to check it against.
const (
	pitRatio  = 1.3
	pitMargin = 5.0
)

// Summary holds the derived statistics of one driver in one race.
type Summary struct {
	BestLap        string  `json:"bestLap"`
	BestLapSeconds float64 `json:"bestLapSeconds"`
	AvgSpeed       float64 `json:"avgSpeed"`
	MaxSpeed       float64 `json:"maxSpeed"`
	PitStops       int     `json:"pitStops"`
	LapsCompleted  int     `json:"lapsCompleted"`
	// Position 0 means the final position is unknown.
	Position int     `json:"position"`
	Points   float64 `json:"points"`
}

// WithResult returns a copy of the summary with the race result filled in.
func (s Summary) WithResult(position int, points float64) Summary {
	s.Position = position
	s.Points = points
	return s
}

// Summarize derives a Summary from a driver's laps. Records that fail Valid
// are skipped; an empty sequence gives a zero summary with an unknown best lap.
func Summarize(laps []LapRecord) Summary {
	s := Summary{BestLap: Unknown}

	valid := lo.Filter(laps, func(l LapRecord, _ int) bool {
		return l.Valid()
	})
	if len(valid) == 0 {
		return s
	}
	slices.SortStableFunc(valid, func(a, b LapRecord) int {
		return a.Lap - b.Lap
	})

	s.LapsCompleted = len(valid)

	speeds := lo.Map(valid, func(l LapRecord, _ int) decimal.Decimal {
		return decimal.NewFromFloat(l.Speed)
	})
	s.AvgSpeed = decimal.Avg(speeds[0], speeds[1:]...).Round(2).InexactFloat64()
	s.MaxSpeed = decimal.Max(speeds[0], speeds[1:]...).InexactFloat64()

	prev := 0.0
	for _, l := range valid {
		secs := l.Seconds()
		if secs <= 0 {
			continue
		}
		if s.BestLapSeconds == 0 || secs < s.BestLapSeconds {
			s.BestLapSeconds = secs
			s.BestLap = strings.TrimSpace(l.Time)
		}
		if prev > 0 && isPitLap(prev, secs) {
			s.PitStops++
		}
		prev = secs
	}
	return s
}

func isPitLap(prev, cur float64) bool {
	return cur > prev*pitRatio && cur > prev+pitMargin
}
