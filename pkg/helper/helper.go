package helper

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// method to convert from seconds to a lap time such as 1:30.123
func SecondsToLapTime(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "-"
	}
	ms := int64(math.Round(seconds * 1000))
	minutes := ms / 60000
	ms -= minutes * 60000
	return fmt.Sprintf("%d:%02d.%03d", minutes, ms/1000, ms%1000)
}

// SecondsToAxisLabel is the coarser format used on chart axes.
func SecondsToAxisLabel(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	cs := int64(math.Round(seconds * 100))
	minutes := cs / 6000
	cs -= minutes * 6000
	return fmt.Sprintf("%d:%02d.%02d", minutes, cs/100, cs%100)
}

// method to convert to seconds and 3 milliseconds
func ToSectorTime(t float64) string {
	if t <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.3f", t)
}

// ToSpeed formats a speed in kph, "-" when unknown.
func ToSpeed(kph float64) string {
	if kph <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", kph)
}

func GetDriverCodeName(name string) string {
	// three letter code from the surname, the way timing screens show it
	// ("Lewis Hamilton" -> "HAM"); single names use their own first letters
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	last := []rune(words[len(words)-1])
	if len(last) >= 3 {
		return strings.ToUpper(string(last[:3]))
	}
	// short surname, pad with the first name
	code := string(last)
	if len(words) > 1 {
		for _, r := range words[0] {
			if len([]rune(code)) == 3 {
				break
			}
			code += string(r)
		}
	}
	return strings.ToUpper(code)
}

// convert name to a short stable hash
func ToID(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprint(h.Sum32())
}
