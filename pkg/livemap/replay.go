package livemap

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"f1dashboard/pkg/analytics"
	"f1dashboard/pkg/datasource"
	"f1dashboard/pkg/geom"
	"f1dashboard/pkg/pubsub"
	"f1dashboard/pkg/render"
	"f1dashboard/pkg/track"
)

// Car is a driver placed on the map at some race time, in viewport
// coordinates.
type Car struct {
	Number   int     `json:"number"`
	Code     string  `json:"code"`
	Team     string  `json:"team"`
	Color    string  `json:"color"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Lap      int     `json:"lap"`
	Fraction float64 `json:"fraction"`
	Position int     `json:"position"`
	Finished bool    `json:"finished"`
}

// Frame is the state of the whole field at one instant of the replay.
type Frame struct {
	Race     int     `json:"race"`
	Elapsed  float64 `json:"elapsed"`
	Cars     []Car   `json:"cars"`
	Finished bool    `json:"finished"`
}

type entry struct {
	driver datasource.Driver
	laps   []analytics.LapRecord
}

// Options size the map the replay is projected on.
type Options struct {
	Width    float64
	Height   float64
	Padding  float64
	Flatness float64
}

// Replay moves the field of a stored race around its circuit using the
// recorded lap times.
type Replay struct {
	raceID   int
	race     datasource.Race
	circuit  track.Circuit
	mapper   *track.Mapper
	state    render.State
	viewport geom.Affine
	entries  map[string]entry
	order    []string
	logger   *zap.Logger
}

func Topic(raceID int) string {
	return fmt.Sprintf("race/%d", raceID)
}

func NewReplay(ctx context.Context, repo datasource.Repository, raceID int, opts Options, logger *zap.Logger) (*Replay, error) {
	race, err := repo.Race(ctx, raceID)
	if err != nil {
		return nil, err
	}
	circuit, ok := track.CircuitByName(race.Name)
	if !ok {
		circuit, _ = track.CircuitByName(race.CircuitName)
	}
	mapper, err := track.NewMapperWithFlatness(circuit.Path(), opts.Flatness)
	if err != nil {
		return nil, errors.Wrapf(err, "mapping circuit %s", circuit.Name)
	}

	drivers, err := repo.Drivers(ctx, raceID)
	if err != nil {
		return nil, err
	}
	r := &Replay{
		raceID:  raceID,
		race:    race,
		circuit: circuit,
		mapper:  mapper,
		entries: make(map[string]entry, len(drivers)),
		logger:  logger.With(zap.Int("race", raceID)),
	}
	for _, d := range drivers {
		laps, err := repo.Laps(ctx, raceID, d.ID)
		if err != nil && !errors.Is(err, datasource.ErrNotFound) {
			return nil, err
		}
		r.entries[d.Abbreviation] = entry{driver: d, laps: laps}
		r.order = append(r.order, d.Abbreviation)
	}

	r.state = render.State{
		Mapper:  mapper,
		Width:   opts.Width,
		Height:  opts.Height,
		Padding: opts.Padding,
		Title:   race.Name,
		Drivers: r.mapDrivers(nil),
	}
	r.viewport = render.Viewport(r.state)
	r.logger.Debug("replay ready",
		zap.String("circuit", circuit.Name),
		zap.Int("drivers", len(drivers)))
	return r, nil
}

func (r *Replay) Race() datasource.Race {
	return r.race
}

func (r *Replay) Circuit() track.Circuit {
	return r.circuit
}

func (r *Replay) mapDrivers(frac map[string]float64) []render.Driver {
	return lo.Map(r.order, func(code string, _ int) render.Driver {
		d := r.entries[code].driver
		return render.Driver{Number: d.Number, Code: code, Team: d.Team, Fraction: frac[code]}
	})
}

// Frame places every driver at the given race time. It only reads the
// replay, so frames can be computed concurrently.
func (r *Replay) Frame(elapsed float64) Frame {
	field := lo.MapValues(r.entries, func(e entry, _ string) []analytics.LapRecord { return e.laps })
	progress := analytics.Positions(field, elapsed)

	f := Frame{Race: r.raceID, Elapsed: elapsed, Finished: true}
	for _, p := range progress {
		e := r.entries[p.Driver]
		f.Finished = f.Finished && p.Finished
		pt := r.viewport.Apply(r.mapper.PointAtFraction(p.Fraction))
		f.Cars = append(f.Cars, Car{
			Number:   e.driver.Number,
			Code:     p.Driver,
			Team:     e.driver.Team,
			Color:    render.Hex(render.TeamColor(e.driver.Team)),
			X:        pt.X,
			Y:        pt.Y,
			Lap:      lo.Min([]int{int(math.Floor(p.Laps)) + 1, p.Total}),
			Fraction: p.Fraction,
			Position: p.Position,
			Finished: p.Finished,
		})
	}
	return f
}

// Snapshot is the track map state with drivers at their positions after
// elapsed seconds.
func (r *Replay) Snapshot(elapsed float64) render.State {
	s := r.state
	if elapsed > 0 {
		frac := lo.SliceToMap(r.Frame(elapsed).Cars, func(c Car) (string, float64) { return c.Code, c.Fraction })
		s.Drivers = r.mapDrivers(frac)
	}
	return s
}

// Track returns the map primitives without driver markers; the live page
// draws those itself.
func (r *Replay) Track() []render.Primitive {
	return lo.Reject(render.Model(r.state), func(p render.Primitive, _ int) bool {
		return p.Layer == render.LayerDriver || p.Layer == render.LayerLabel
	})
}

// Run publishes a frame every tick, advancing race time by tick*speed,
// until every driver has finished or ctx is done. It returns the last frame
// published.
func (r *Replay) Run(ctx context.Context, ps *pubsub.PubSub[Frame], tick time.Duration, speed float64) (Frame, error) {
	if tick <= 0 || speed <= 0 {
		return Frame{}, errors.Errorf("invalid replay clock: tick %s, speed %g", tick, speed)
	}
	t := time.NewTicker(tick)
	defer t.Stop()

	r.logger.Info("replay started", zap.Duration("tick", tick), zap.Float64("speed", speed))
	elapsed := 0.0
	for {
		f := r.Frame(elapsed)
		ps.Publish(Topic(r.raceID), f)
		if f.Finished {
			r.logger.Info("replay finished", zap.Float64("elapsed", elapsed))
			return f, nil
		}
		select {
		case <-ctx.Done():
			r.logger.Info("replay stopped", zap.Float64("elapsed", elapsed))
			return f, ctx.Err()
		case <-t.C:
			elapsed += tick.Seconds() * speed
		}
	}
}
