package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"f1dashboard/pkg/analytics"
	"f1dashboard/pkg/dashboard"
	"f1dashboard/pkg/datasource"
	"f1dashboard/pkg/helper"
)

const (
	InfoTimes    = "times"
	InfoSectors  = "sectors"
	InfoSpeed    = "speed"
	InfoPosition = "position"

	tableLap    = "LAP"
	tableDriver = "DRIVER"
)

// InfoTypes lists the lap views accepted by Laps.
var InfoTypes = []string{InfoTimes, InfoSectors, InfoSpeed, InfoPosition}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// Comparison prints the side by side rows of two drivers.
func Comparison(w io.Writer, c dashboard.Comparison) {
	t := newTable(w)
	t.SetTitle(c.Race.Name)
	t.AppendHeader(table.Row{"Metric", c.Driver1.Driver.Abbreviation, c.Driver2.Driver.Abbreviation, "Delta"})
	for _, r := range c.Rows {
		t.AppendRow(table.Row{r.Metric, r.Driver1, r.Driver2, r.Delta})
	}
	t.Render()
}

// Laps prints one column of lap data for a driver.
func Laps(w io.Writer, driver datasource.Driver, laps []analytics.LapRecord, infoType string) error {
	header := map[string]string{
		InfoTimes:    "Time",
		InfoSectors:  "Sectors",
		InfoSpeed:    "Speed",
		InfoPosition: "Pos",
	}[infoType]
	if header == "" {
		return errors.Errorf("unknown lap view %q", infoType)
	}

	t := newTable(w)
	t.SetTitle(driver.FullName)
	t.AppendHeader(table.Row{tableLap, header})
	for _, l := range laps {
		switch infoType {
		case InfoTimes:
			t.AppendRow(table.Row{l.Lap, l.Time})
		case InfoSectors:
			t.AppendRow(table.Row{l.Lap, fmt.Sprintf("%s %s %s", l.Sectors[0], l.Sectors[1], l.Sectors[2])})
		case InfoSpeed:
			t.AppendRow(table.Row{l.Lap, helper.ToSpeed(l.Speed)})
		case InfoPosition:
			pos := analytics.Unknown
			if l.Position > 0 {
				pos = strconv.Itoa(l.Position)
			}
			t.AppendRow(table.Row{l.Lap, pos})
		}
	}
	if len(laps) == 0 {
		t.AppendRow(table.Row{analytics.Unknown, "No lap data available"})
	}
	t.Render()
	return nil
}

// Entry is a driver with their result in a race.
type Entry struct {
	Driver datasource.Driver
	Result datasource.Result
}

// Classification prints the finishing order of a race.
func Classification(w io.Writer, race datasource.Race, entries []Entry) {
	t := newTable(w)
	t.SetTitle(race.Name)
	t.AppendHeader(table.Row{"POS", tableDriver, "Team", "Laps", "Points", "Status"})
	for _, e := range entries {
		pos := analytics.Unknown
		if e.Result.Position > 0 {
			pos = strconv.Itoa(e.Result.Position)
		}
		t.AppendRow(table.Row{
			pos,
			e.Driver.Abbreviation,
			e.Driver.Team,
			e.Result.LapsCompleted,
			strconv.FormatFloat(e.Result.Points, 'f', -1, 64),
			e.Result.Status,
		})
	}
	t.Render()
}

// Races prints a season calendar.
func Races(w io.Writer, races []datasource.Race) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Round", "Race", "Circuit", "Date"})
	for _, r := range races {
		t.AppendRow(table.Row{r.ID, r.Round, r.Name, r.CircuitName, r.Date})
	}
	t.Render()
}
