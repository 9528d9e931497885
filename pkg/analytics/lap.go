package analytics

import (
	"math"
	"strconv"
	"strings"
)

// Unknown is shown wherever a value could not be determined.
const Unknown = "-"

// MaxLap bounds the lap numbers series are built from. Records beyond it
// are treated as corrupt.
const MaxLap = 1000

// LapRecord is one lap of telemetry for a driver.
type LapRecord struct {
	Lap      int       `json:"lap"`
	Time     string    `json:"time"`
	Sectors  [3]string `json:"sectors"`
	Speed    float64   `json:"speed"`
	Position int       `json:"position,omitempty"`
}

// Valid reports whether the record carries the fields aggregates need.
func (r LapRecord) Valid() bool {
	if r.Lap <= 0 || strings.TrimSpace(r.Time) == "" {
		return false
	}
	return !math.IsNaN(r.Speed) && !math.IsInf(r.Speed, 0) && r.Speed >= 0
}

// Seconds is the parsed lap time, 0 when unknown.
func (r LapRecord) Seconds() float64 {
	return LapTimeToSeconds(r.Time)
}

// LapTimeToSeconds parses "M:SS.mmm" or "SS.mmm". Empty or unparseable
// input gives 0, which callers treat as unknown.
func LapTimeToSeconds(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		secs, _ := parseSeconds(parts[0])
		return secs
	case 2:
		minutes, err := strconv.Atoi(parts[0])
		if err != nil || minutes < 0 {
			return 0
		}
		secs, ok := parseSeconds(parts[1])
		if !ok {
			return 0
		}
		return float64(minutes)*60 + secs
	default:
		return 0
	}
}

func parseSeconds(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// SectorSum adds the three sector times of a lap. It returns 0 when any
// sector is unknown.
func SectorSum(r LapRecord) float64 {
	sum := 0.0
	for _, s := range r.Sectors {
		v := LapTimeToSeconds(s)
		if v <= 0 {
			return 0
		}
		sum += v
	}
	return sum
}

// LapTimeSeries returns lap times in seconds ordered by lap number. Index i
// holds lap i+1; laps without a parseable time are 0. Lap numbers above
// MaxLap are ignored.
func LapTimeSeries(laps []LapRecord) []float64 {
	last := 0
	for _, l := range laps {
		if l.Lap > last && l.Lap <= MaxLap {
			last = l.Lap
		}
	}
	out := make([]float64, last)
	for _, l := range laps {
		if l.Lap <= 0 || l.Lap > MaxLap {
			continue
		}
		out[l.Lap-1] = l.Seconds()
	}
	return out
}
