package datasource

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"f1dashboard/pkg/analytics"
)

// SQLite is the repository backed by a local sqlite file.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.Mutex
}

func NewSQLite(path string, logger *zap.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		logger.Error("error opening database", zap.String("db", path), zap.Error(err))
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	for _, stmt := range buildCreateTables() {
		if _, err := db.Exec(stmt); err != nil {
			logger.Error("error init database", zap.Error(err))
			db.Close()
			return nil, errors.Wrap(err, "creating schema")
		}
	}

	return &SQLite{
		db:     db,
		logger: logger,
	}, nil
}

func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

func (s *SQLite) Seasons(ctx context.Context) ([]Season, error) {
	q, read := buildSelectSeasons()
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "querying seasons")
	}
	return read(rows)
}

func (s *SQLite) Races(ctx context.Context, year int) ([]Race, error) {
	q, args, read := buildSelectRaces(year)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying races")
	}
	return read(rows)
}

func (s *SQLite) Race(ctx context.Context, id int) (Race, error) {
	q, args, read := buildSelectRace(id)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return Race{}, errors.Wrapf(err, "querying race %d", id)
	}
	races, err := read(rows)
	if err != nil {
		return Race{}, err
	}
	if len(races) == 0 {
		return Race{}, errors.Wrapf(ErrNotFound, "race %d", id)
	}
	return races[0], nil
}

func (s *SQLite) Teams(ctx context.Context) ([]Team, error) {
	q, read := buildSelectTeams()
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "querying teams")
	}
	return read(rows)
}

func (s *SQLite) Drivers(ctx context.Context, raceID int) ([]Driver, error) {
	if _, err := s.Race(ctx, raceID); err != nil {
		return nil, err
	}
	q, args, read := buildSelectRaceDrivers(raceID)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying drivers of race %d", raceID)
	}
	return read(rows)
}

func (s *SQLite) Driver(ctx context.Context, id int) (Driver, error) {
	q, args, read := buildSelectDriver(id)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return Driver{}, errors.Wrapf(err, "querying driver %d", id)
	}
	drivers, err := read(rows)
	if err != nil {
		return Driver{}, err
	}
	if len(drivers) == 0 {
		return Driver{}, errors.Wrapf(ErrNotFound, "driver %d", id)
	}
	return drivers[0], nil
}

func (s *SQLite) Result(ctx context.Context, raceID, driverID int) (Result, error) {
	q, args, read := buildSelectResult(raceID, driverID)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return Result{}, errors.Wrap(err, "querying result")
	}
	results, err := read(rows)
	if err != nil {
		return Result{}, err
	}
	if len(results) == 0 {
		return Result{}, errors.Wrapf(ErrNotFound, "result of driver %d in race %d", driverID, raceID)
	}
	return results[0], nil
}

// Laps returns the driver's laps in lap order. A driver without lap data in
// an existing race gets an empty slice, an unknown race or driver ErrNotFound.
func (s *SQLite) Laps(ctx context.Context, raceID, driverID int) ([]analytics.LapRecord, error) {
	q, args, read := buildSelectLaps(raceID, driverID)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying laps")
	}
	laps, err := read(rows)
	if err != nil {
		return nil, err
	}
	if len(laps) == 0 {
		if _, err := s.Result(ctx, raceID, driverID); err != nil {
			return nil, err
		}
	}
	return laps, nil
}

// Seed copies every season, team, race, driver, result and lap of src into
// the store in a single transaction. Existing rows with the same keys are
// replaced.
func (s *SQLite) Seed(ctx context.Context, src Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting seed transaction")
	}
	if err := seed(ctx, tx, src); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing seed")
	}
	s.logger.Info("database seeded")
	return nil
}

func seed(ctx context.Context, tx *sql.Tx, src Repository) error {
	seasons, err := src.Seasons(ctx)
	if err != nil {
		return err
	}
	for _, x := range seasons {
		if _, err := tx.ExecContext(ctx, insertSeason, x.ID, x.Year, x.Name); err != nil {
			return errors.Wrapf(err, "inserting season %d", x.Year)
		}
	}

	teams, err := src.Teams(ctx)
	if err != nil {
		return err
	}
	for _, t := range teams {
		if _, err := tx.ExecContext(ctx, insertTeam, t.ID, t.Name, t.FullName, t.Nationality, t.Base); err != nil {
			return errors.Wrapf(err, "inserting team %s", t.Name)
		}
	}

	races, err := src.Races(ctx, 0)
	if err != nil {
		return err
	}
	seen := map[int]bool{}
	for _, r := range races {
		_, err := tx.ExecContext(ctx, insertRace, r.ID, r.Year, r.Name, r.CircuitName, r.Date, r.Country, r.City, r.Round)
		if err != nil {
			return errors.Wrapf(err, "inserting race %s", r.Name)
		}

		drivers, err := src.Drivers(ctx, r.ID)
		if err != nil {
			return err
		}
		for _, d := range drivers {
			if !seen[d.ID] {
				_, err := tx.ExecContext(ctx, insertDriver, d.ID, d.Number, d.Abbreviation, d.FirstName, d.LastName, d.FullName, d.TeamID)
				if err != nil {
					return errors.Wrapf(err, "inserting driver %s", d.FullName)
				}
				seen[d.ID] = true
			}
			if err := seedDriverRace(ctx, tx, src, r.ID, d.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedDriverRace(ctx context.Context, tx *sql.Tx, src Repository, raceID, driverID int) error {
	res, err := src.Result(ctx, raceID, driverID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return err
	default:
		_, err := tx.ExecContext(ctx, insertResult, res.RaceID, res.DriverID, res.Position, res.Points, res.Grid, res.Status, res.LapsCompleted)
		if err != nil {
			return errors.Wrapf(err, "inserting result of driver %d in race %d", driverID, raceID)
		}
	}

	laps, err := src.Laps(ctx, raceID, driverID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	for _, l := range laps {
		_, err := tx.ExecContext(ctx, insertLap, raceID, driverID, l.Lap, l.Position, l.Time,
			l.Sectors[0], l.Sectors[1], l.Sectors[2], l.Speed)
		if err != nil {
			return errors.Wrapf(err, "inserting lap %d of driver %d in race %d", l.Lap, driverID, raceID)
		}
	}
	return nil
}
