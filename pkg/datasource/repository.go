package datasource

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"f1dashboard/pkg/analytics"
	"f1dashboard/pkg/config"
)

var ErrNotFound = errors.New("not found")

type Season struct {
	ID   int    `json:"id"`
	Year int    `json:"year"`
	Name string `json:"name"`
}

type Race struct {
	ID          int    `json:"id"`
	Year        int    `json:"year"`
	Name        string `json:"name"`
	CircuitName string `json:"circuitName"`
	Date        string `json:"date"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Round       int    `json:"round"`
}

type Team struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"fullName"`
	Nationality string `json:"nationality"`
	Base        string `json:"base"`
}

type Driver struct {
	ID           int    `json:"id"`
	Number       int    `json:"number"`
	Abbreviation string `json:"abbreviation"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	FullName     string `json:"fullName"`
	TeamID       int    `json:"teamId"`
	Team         string `json:"team"`
}

type Result struct {
	RaceID        int     `json:"raceId"`
	DriverID      int     `json:"driverId"`
	Position      int     `json:"position"`
	Points        float64 `json:"points"`
	Grid          int     `json:"grid"`
	Status        string  `json:"status"`
	LapsCompleted int     `json:"lapsCompleted"`
}

// Repository is the read side of a race data store. Lookups of a single
// entity return ErrNotFound when it does not exist.
type Repository interface {
	Seasons(ctx context.Context) ([]Season, error)
	// Races of one season, every season when year is 0.
	Races(ctx context.Context, year int) ([]Race, error)
	Race(ctx context.Context, id int) (Race, error)
	Teams(ctx context.Context) ([]Team, error)
	// Drivers classified in a race, in finishing order.
	Drivers(ctx context.Context, raceID int) ([]Driver, error)
	Driver(ctx context.Context, id int) (Driver, error)
	Result(ctx context.Context, raceID, driverID int) (Result, error)
	Laps(ctx context.Context, raceID, driverID int) ([]analytics.LapRecord, error)
	Close() error
}

// Open builds the repository selected by the configuration.
func Open(cfg config.Datasource, logger *zap.Logger) (Repository, error) {
	switch cfg.Kind {
	case config.KindSynthetic:
		logger.Info("using synthetic datasource", zap.Int64("seed", cfg.Seed))
		return NewSynthetic(cfg.Seed), nil
	case config.KindSQLite:
		logger.Info("using sqlite datasource", zap.String("db", cfg.DB))
		return NewSQLite(cfg.DB, logger)
	default:
		return nil, errors.Errorf("unknown datasource %q", cfg.Kind)
	}
}

// DriverRace summarizes a driver's race: lap statistics plus the final
// classification when there is one.
func DriverRace(ctx context.Context, repo Repository, raceID, driverID int) (analytics.Summary, error) {
	laps, err := repo.Laps(ctx, raceID, driverID)
	if err != nil {
		return analytics.Summary{}, err
	}
	s := analytics.Summarize(laps)
	res, err := repo.Result(ctx, raceID, driverID)
	switch {
	case errors.Is(err, ErrNotFound):
		return s, nil
	case err != nil:
		return s, err
	}
	s = s.WithResult(res.Position, res.Points)
	if s.LapsCompleted == 0 {
		s.LapsCompleted = res.LapsCompleted
	}
	return s, nil
}

// FindDriver resolves a driver of a race by numeric id or abbreviation.
func FindDriver(ctx context.Context, repo Repository, raceID int, key string) (Driver, error) {
	drivers, err := repo.Drivers(ctx, raceID)
	if err != nil {
		return Driver{}, err
	}
	key = strings.TrimSpace(key)
	if id, err := strconv.Atoi(key); err == nil {
		if d, ok := lo.Find(drivers, func(d Driver) bool { return d.ID == id }); ok {
			return d, nil
		}
	}
	if d, ok := lo.Find(drivers, func(d Driver) bool { return strings.EqualFold(d.Abbreviation, key) }); ok {
		return d, nil
	}
	return Driver{}, errors.Wrapf(ErrNotFound, "driver %q in race %d", key, raceID)
}
