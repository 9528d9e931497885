package datasource

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"f1dashboard/pkg/analytics"
	"f1dashboard/pkg/helper"
)

const (
	raceLaps = 57
	// time lost in the pit lane; more than 30% of a lap so pit laps are
	// picked up by analytics.Summarize
	pitLoss     = 32.0
	dnfMinLaps  = 10
	dnfLapRange = 40
)

// pitLaps are the laps on which every finisher stops for tyres.
var pitLaps = []int{18, 38}

var pointsTable = []float64{25, 18, 15, 12, 10, 8, 6, 4, 2, 1}

var syntheticTeams = []Team{
	{ID: 1, Name: "Mercedes", FullName: "Mercedes-AMG Petronas F1 Team", Nationality: "German", Base: "Brackley, United Kingdom"},
	{ID: 2, Name: "Red Bull", FullName: "Red Bull Racing", Nationality: "Austrian", Base: "Milton Keynes, United Kingdom"},
	{ID: 3, Name: "Ferrari", FullName: "Scuderia Ferrari", Nationality: "Italian", Base: "Maranello, Italy"},
	{ID: 4, Name: "McLaren", FullName: "McLaren F1 Team", Nationality: "British", Base: "Woking, United Kingdom"},
	{ID: 5, Name: "Alpine", FullName: "Alpine F1 Team", Nationality: "French", Base: "Enstone, United Kingdom"},
	{ID: 6, Name: "AlphaTauri", FullName: "Scuderia AlphaTauri", Nationality: "Italian", Base: "Faenza, Italy"},
	{ID: 7, Name: "Aston Martin", FullName: "Aston Martin Aramco Cognizant F1 Team", Nationality: "British", Base: "Silverstone, United Kingdom"},
	{ID: 8, Name: "Williams", FullName: "Williams Racing", Nationality: "British", Base: "Grove, United Kingdom"},
	{ID: 9, Name: "Alfa Romeo", FullName: "Alfa Romeo F1 Team ORLEN", Nationality: "Swiss", Base: "Hinwil, Switzerland"},
	{ID: 10, Name: "Haas", FullName: "Haas F1 Team", Nationality: "American", Base: "Kannapolis, United States"},
}

var syntheticDrivers = []struct {
	number int
	first  string
	last   string
	team   int
	// seconds per lap relative to the field
	pace float64
}{
	{44, "Lewis", "Hamilton", 1, -1.5},
	{63, "George", "Russell", 1, -0.6},
	{1, "Max", "Verstappen", 2, -1.5},
	{11, "Sergio", "Perez", 2, -0.6},
	{16, "Charles", "Leclerc", 3, -0.8},
	{55, "Carlos", "Sainz", 3, -0.5},
	{4, "Lando", "Norris", 4, -0.8},
	{3, "Daniel", "Ricciardo", 4, 0},
	{14, "Fernando", "Alonso", 5, -0.3},
	{31, "Esteban", "Ocon", 5, 0},
	{10, "Pierre", "Gasly", 6, 0},
	{22, "Yuki", "Tsunoda", 6, 0.3},
	{5, "Sebastian", "Vettel", 7, 0},
	{18, "Lance", "Stroll", 7, 0.3},
	{6, "Nicholas", "Latifi", 8, 0.8},
	{23, "Alexander", "Albon", 8, 0.5},
	{77, "Valtteri", "Bottas", 9, 0.3},
	{24, "Guanyu", "Zhou", 9, 0.5},
	{47, "Mick", "Schumacher", 10, 0.8},
	{20, "Kevin", "Magnussen", 10, 0.5},
}

var syntheticRaces = []Race{
	{Year: 2023, Name: "2023 Bahrain Grand Prix", CircuitName: "Bahrain International Circuit", Date: "2023-03-05", Country: "Bahrain", City: "Sakhir", Round: 1},
	{Year: 2023, Name: "2023 Saudi Arabian Grand Prix", CircuitName: "Jeddah Corniche Circuit", Date: "2023-03-19", Country: "Saudi Arabia", City: "Jeddah", Round: 2},
	{Year: 2023, Name: "2023 Australian Grand Prix", CircuitName: "Albert Park Circuit", Date: "2023-04-02", Country: "Australia", City: "Melbourne", Round: 3},
	{Year: 2023, Name: "2023 Azerbaijan Grand Prix", CircuitName: "Baku City Circuit", Date: "2023-04-30", Country: "Azerbaijan", City: "Baku", Round: 4},
	{Year: 2023, Name: "2023 Miami Grand Prix", CircuitName: "Miami International Autodrome", Date: "2023-05-07", Country: "United States", City: "Miami", Round: 5},
	{Year: 2022, Name: "2022 Bahrain Grand Prix", CircuitName: "Bahrain International Circuit", Date: "2022-03-20", Country: "Bahrain", City: "Sakhir", Round: 1},
	{Year: 2022, Name: "2022 Saudi Arabian Grand Prix", CircuitName: "Jeddah Corniche Circuit", Date: "2022-03-27", Country: "Saudi Arabia", City: "Jeddah", Round: 2},
	{Year: 2022, Name: "2022 Australian Grand Prix", CircuitName: "Albert Park Circuit", Date: "2022-04-10", Country: "Australia", City: "Melbourne", Round: 3},
	{Year: 2022, Name: "2022 Emilia Romagna Grand Prix", CircuitName: "Autodromo Enzo e Dino Ferrari", Date: "2022-04-24", Country: "Italy", City: "Imola", Round: 4},
	{Year: 2022, Name: "2022 Miami Grand Prix", CircuitName: "Miami International Autodrome", Date: "2022-05-08", Country: "United States", City: "Miami", Round: 5},
	{Year: 2021, Name: "2021 Bahrain Grand Prix", CircuitName: "Bahrain International Circuit", Date: "2021-03-28", Country: "Bahrain", City: "Sakhir", Round: 1},
	{Year: 2021, Name: "2021 Emilia Romagna Grand Prix", CircuitName: "Autodromo Enzo e Dino Ferrari", Date: "2021-04-18", Country: "Italy", City: "Imola", Round: 2},
	{Year: 2021, Name: "2021 Portuguese Grand Prix", CircuitName: "Algarve International Circuit", Date: "2021-05-02", Country: "Portugal", City: "Portimão", Round: 3},
	{Year: 2021, Name: "2021 Spanish Grand Prix", CircuitName: "Circuit de Barcelona-Catalunya", Date: "2021-05-09", Country: "Spain", City: "Barcelona", Round: 4},
	{Year: 2021, Name: "2021 Monaco Grand Prix", CircuitName: "Circuit de Monaco", Date: "2021-05-23", Country: "Monaco", City: "Monte Carlo", Round: 5},
	{Year: 2020, Name: "2020 Austrian Grand Prix", CircuitName: "Red Bull Ring", Date: "2020-07-05", Country: "Austria", City: "Spielberg", Round: 1},
	{Year: 2020, Name: "2020 Styrian Grand Prix", CircuitName: "Red Bull Ring", Date: "2020-07-12", Country: "Austria", City: "Spielberg", Round: 2},
	{Year: 2020, Name: "2020 Hungarian Grand Prix", CircuitName: "Hungaroring", Date: "2020-07-19", Country: "Hungary", City: "Budapest", Round: 3},
	{Year: 2020, Name: "2020 British Grand Prix", CircuitName: "Silverstone Circuit", Date: "2020-08-02", Country: "United Kingdom", City: "Silverstone", Round: 4},
	{Year: 2020, Name: "2020 70th Anniversary Grand Prix", CircuitName: "Silverstone Circuit", Date: "2020-08-09", Country: "United Kingdom", City: "Silverstone", Round: 5},
}

type raceDriver struct {
	race   int
	driver int
}

// Synthetic is an in-memory repository generated from a seed. The same seed
// always produces the same seasons, results and laps.
type Synthetic struct {
	seed    int64
	seasons []Season
	races   []Race
	teams   []Team
	drivers []Driver
	results map[raceDriver]Result
	laps    map[raceDriver][]analytics.LapRecord
	mu      sync.RWMutex
}

func NewSynthetic(seed int64) *Synthetic {
	s := &Synthetic{
		seed:    seed,
		teams:   append([]Team(nil), syntheticTeams...),
		results: make(map[raceDriver]Result),
		laps:    make(map[raceDriver][]analytics.LapRecord),
	}
	s.generate()
	return s
}

func (s *Synthetic) Seed() int64 {
	return s.seed
}

func (s *Synthetic) generate() {
	teamByID := lo.KeyBy(s.teams, func(t Team) int { return t.ID })
	for i, d := range syntheticDrivers {
		s.drivers = append(s.drivers, Driver{
			ID:           i + 1,
			Number:       d.number,
			Abbreviation: helper.GetDriverCodeName(d.first + " " + d.last),
			FirstName:    d.first,
			LastName:     d.last,
			FullName:     d.first + " " + d.last,
			TeamID:       d.team,
			Team:         teamByID[d.team].Name,
		})
	}

	years := lo.Uniq(lo.Map(syntheticRaces, func(r Race, _ int) int { return r.Year }))
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	for i, y := range years {
		s.seasons = append(s.seasons, Season{ID: i + 1, Year: y, Name: fmt.Sprintf("%d FIA Formula One World Championship", y)})
	}

	for i, r := range syntheticRaces {
		r.ID = i + 1
		s.races = append(s.races, r)
		// one generator per race so races do not shift when others change
		rng := rand.New(rand.NewSource(s.seed*1000 + int64(r.ID)))
		s.generateRace(rng, r.ID)
	}
}

func (s *Synthetic) generateRace(rng *rand.Rand, raceID int) {
	// order of the field by pace with some noise, the finishing order
	type entry struct {
		driver Driver
		pace   float64
	}
	field := make([]entry, len(s.drivers))
	for i, d := range s.drivers {
		field[i] = entry{driver: d, pace: syntheticDrivers[i].pace + rng.Float64()*1.5}
	}
	sort.SliceStable(field, func(i, j int) bool { return field[i].pace < field[j].pace })

	n := len(field)
	for i, e := range field {
		pos := i + 1
		status := "Finished"
		laps := raceLaps
		if pos > n-2 {
			status = "DNF"
			laps = dnfMinLaps + rng.Intn(dnfLapRange)
		}
		points := 0.0
		if pos <= len(pointsTable) {
			points = pointsTable[pos-1]
		}
		key := raceDriver{race: raceID, driver: e.driver.ID}
		s.results[key] = Result{
			RaceID:        raceID,
			DriverID:      e.driver.ID,
			Position:      pos,
			Points:        points,
			Grid:          rng.Intn(n) + 1,
			Status:        status,
			LapsCompleted: laps,
		}
		s.laps[key] = generateLaps(rng, e.pace, pos, n, laps)
	}
}

// generateLaps builds lap records with fuel burn, tyre wear that resets at
// each pit stop, pit lane time loss and random variation.
func generateLaps(rng *rand.Rand, pace float64, finalPos, fieldSize, laps int) []analytics.LapRecord {
	base := 90.0 + pace
	baseSpeed := 200 + rng.Float64()*20
	out := make([]analytics.LapRecord, 0, laps)
	stint := 0
	for lap := 1; lap <= laps; lap++ {
		fuel := -0.05 * float64(lap)
		tyre := 0.02 * float64(stint)
		stint++
		t := base + fuel + tyre + (rng.Float64()-0.5)*2.0
		if lo.Contains(pitLaps, lap) {
			t += pitLoss + rng.Float64()*3
			stint = 0
		}

		total := int64(math.Round(t * 1000))
		s1 := int64(math.Round(float64(total) * (0.3 + (rng.Float64()-0.5)*0.05)))
		s2 := int64(math.Round(float64(total) * (0.4 + (rng.Float64()-0.5)*0.05)))
		s3 := total - s1 - s2

		speed := baseSpeed + (rng.Float64()-0.5)*10
		out = append(out, analytics.LapRecord{
			Lap:  lap,
			Time: helper.SecondsToLapTime(float64(total) / 1000),
			Sectors: [3]string{
				helper.ToSectorTime(float64(s1) / 1000),
				helper.ToSectorTime(float64(s2) / 1000),
				helper.ToSectorTime(float64(s3) / 1000),
			},
			Speed:    math.Round(speed*1000) / 1000,
			Position: lapPosition(rng, lap, finalPos, fieldSize),
		})
	}
	return out
}

// lapPosition moves a driver around their final position, more early in
// the race than at the end.
func lapPosition(rng *rand.Rand, lap, finalPos, fieldSize int) int {
	spread := math.Min(5, math.Abs(float64(finalPos-10)))
	var p int
	switch {
	case lap < 10:
		p = finalPos + int((rng.Float64()-0.3)*spread)
	case lap < 40:
		p = finalPos + int((rng.Float64()-0.5)*spread/2)
	default:
		p = finalPos + int((rng.Float64()-0.7)*spread/3)
	}
	return lo.Clamp(p, 1, fieldSize)
}

func (s *Synthetic) Seasons(_ context.Context) ([]Season, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Season(nil), s.seasons...), nil
}

func (s *Synthetic) Races(_ context.Context, year int) ([]Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.races, func(r Race, _ int) bool {
		return year == 0 || r.Year == year
	}), nil
}

func (s *Synthetic) Race(_ context.Context, id int) (Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := lo.Find(s.races, func(r Race) bool { return r.ID == id })
	if !ok {
		return Race{}, errors.Wrapf(ErrNotFound, "race %d", id)
	}
	return r, nil
}

func (s *Synthetic) Teams(_ context.Context) ([]Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Team(nil), s.teams...), nil
}

func (s *Synthetic) Drivers(ctx context.Context, raceID int) ([]Driver, error) {
	if _, err := s.Race(ctx, raceID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := lo.Filter(s.drivers, func(d Driver, _ int) bool {
		_, ok := s.results[raceDriver{race: raceID, driver: d.ID}]
		return ok
	})
	sort.SliceStable(out, func(i, j int) bool {
		return s.results[raceDriver{raceID, out[i].ID}].Position < s.results[raceDriver{raceID, out[j].ID}].Position
	})
	return out, nil
}

func (s *Synthetic) Driver(_ context.Context, id int) (Driver, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := lo.Find(s.drivers, func(d Driver) bool { return d.ID == id })
	if !ok {
		return Driver{}, errors.Wrapf(ErrNotFound, "driver %d", id)
	}
	return d, nil
}

func (s *Synthetic) Result(_ context.Context, raceID, driverID int) (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[raceDriver{race: raceID, driver: driverID}]
	if !ok {
		return Result{}, errors.Wrapf(ErrNotFound, "result of driver %d in race %d", driverID, raceID)
	}
	return r, nil
}

func (s *Synthetic) Laps(_ context.Context, raceID, driverID int) ([]analytics.LapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	laps, ok := s.laps[raceDriver{race: raceID, driver: driverID}]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "laps of driver %d in race %d", driverID, raceID)
	}
	return append([]analytics.LapRecord(nil), laps...), nil
}

func (s *Synthetic) Close() error {
	return nil
}
