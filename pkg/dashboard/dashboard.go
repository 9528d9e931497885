// Package dashboard assembles the views shown to users from a repository:
// driver comparisons, lap time charts and track maps. The HTTP service and
// the command line both go through it.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"f1dashboard/pkg/analytics"
	"f1dashboard/pkg/config"
	"f1dashboard/pkg/datasource"
	"f1dashboard/pkg/livemap"
	"f1dashboard/pkg/render"
)

// ErrBadRequest marks errors caused by the caller's input.
var ErrBadRequest = errors.New("bad request")

type DriverSummary struct {
	Driver  datasource.Driver `json:"driver"`
	Summary analytics.Summary `json:"summary"`
}

type Comparison struct {
	Race    datasource.Race `json:"race"`
	Driver1 DriverSummary   `json:"driver1"`
	Driver2 DriverSummary   `json:"driver2"`
	Rows    []analytics.Row `json:"rows"`
}

type Dashboard struct {
	repo   datasource.Repository
	render config.Render
	logger *zap.Logger
}

func New(repo datasource.Repository, cfg config.Render, logger *zap.Logger) *Dashboard {
	return &Dashboard{repo: repo, render: cfg, logger: logger}
}

func (d *Dashboard) Repository() datasource.Repository {
	return d.repo
}

func (d *Dashboard) RenderConfig() config.Render {
	return d.render
}

// Summary resolves a driver of a race by id or abbreviation and summarizes
// their race.
func (d *Dashboard) Summary(ctx context.Context, raceID int, driverKey string) (DriverSummary, error) {
	drv, err := datasource.FindDriver(ctx, d.repo, raceID, driverKey)
	if err != nil {
		return DriverSummary{}, err
	}
	s, err := datasource.DriverRace(ctx, d.repo, raceID, drv.ID)
	if err != nil {
		return DriverSummary{}, err
	}
	return DriverSummary{Driver: drv, Summary: s}, nil
}

// Compare puts two drivers of the same race side by side.
func (d *Dashboard) Compare(ctx context.Context, raceID int, key1, key2 string) (Comparison, error) {
	race, err := d.repo.Race(ctx, raceID)
	if err != nil {
		return Comparison{}, err
	}
	a, err := d.Summary(ctx, raceID, key1)
	if err != nil {
		return Comparison{}, err
	}
	b, err := d.Summary(ctx, raceID, key2)
	if err != nil {
		return Comparison{}, err
	}
	if a.Driver.ID == b.Driver.ID {
		return Comparison{}, errors.Wrapf(ErrBadRequest, "cannot compare %s with itself", a.Driver.Abbreviation)
	}
	d.logger.Debug("comparing drivers",
		zap.Int("race", raceID),
		zap.String("driver1", a.Driver.Abbreviation),
		zap.String("driver2", b.Driver.Abbreviation))
	return Comparison{
		Race:    race,
		Driver1: a,
		Driver2: b,
		Rows:    analytics.Compare(a.Summary, b.Summary),
	}, nil
}

// LapChart builds the lap time chart of the given drivers, coloured by team.
// Drivers of the same team after the first fall back to the default series
// colours so the lines stay apart.
func (d *Dashboard) LapChart(ctx context.Context, raceID int, driverKeys []string) (render.ChartState, error) {
	race, err := d.repo.Race(ctx, raceID)
	if err != nil {
		return render.ChartState{}, err
	}
	keys := lo.Compact(lo.Map(driverKeys, func(k string, _ int) string { return strings.TrimSpace(k) }))
	if len(keys) == 0 {
		return render.ChartState{}, errors.Wrap(ErrBadRequest, "no drivers selected")
	}

	state := render.ChartState{
		Width:  float64(d.render.Width),
		Height: float64(d.render.Height),
		Title:  fmt.Sprintf("Lap Time Comparison - %s", race.Name),
	}
	teams := map[string]bool{}
	for i, k := range keys {
		drv, err := datasource.FindDriver(ctx, d.repo, raceID, k)
		if err != nil {
			return render.ChartState{}, err
		}
		laps, err := d.repo.Laps(ctx, raceID, drv.ID)
		if err != nil && !errors.Is(err, datasource.ErrNotFound) {
			return render.ChartState{}, err
		}
		color := render.TeamColor(drv.Team)
		if teams[drv.Team] {
			color = render.DefaultSeriesColors[i%len(render.DefaultSeriesColors)]
		}
		teams[drv.Team] = true
		state.Series = append(state.Series, render.Series{
			Name:   drv.Abbreviation,
			Color:  color,
			Values: analytics.LapTimeSeries(laps),
		})
	}
	return state, nil
}

// RaceMap is the track map of a race with every driver placed where they
// were after elapsed seconds of race time.
func (d *Dashboard) RaceMap(ctx context.Context, raceID int, elapsed float64) (render.State, error) {
	r, err := d.Replay(ctx, raceID)
	if err != nil {
		return render.State{}, err
	}
	return r.Snapshot(elapsed), nil
}

func (d *Dashboard) Replay(ctx context.Context, raceID int) (*livemap.Replay, error) {
	return livemap.NewReplay(ctx, d.repo, raceID, livemap.Options{
		Width:    float64(d.render.Width),
		Height:   float64(d.render.Height),
		Padding:  d.render.Padding,
		Flatness: d.render.Flatness,
	}, d.logger)
}
