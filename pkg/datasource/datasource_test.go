package datasource

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"f1dashboard/pkg/analytics"
	"f1dashboard/pkg/config"
)

func TestSyntheticDeterministic(t *testing.T) {
	ctx := context.Background()
	a := NewSynthetic(7)
	b := NewSynthetic(7)
	c := NewSynthetic(8)

	lapsA, err := a.Laps(ctx, 3, 1)
	require.NoError(t, err)
	lapsB, err := b.Laps(ctx, 3, 1)
	require.NoError(t, err)
	lapsC, err := c.Laps(ctx, 3, 1)
	require.NoError(t, err)

	if diff := cmp.Diff(lapsA, lapsB); diff != "" {
		t.Errorf("same seed gave different laps (-a +b):\n%s", diff)
	}
	assert.NotEqual(t, lapsA, lapsC)

	dA, err := a.Drivers(ctx, 3)
	require.NoError(t, err)
	dB, err := b.Drivers(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, dA, dB)
}

func TestSyntheticCatalog(t *testing.T) {
	ctx := context.Background()
	s := NewSynthetic(1)

	seasons, err := s.Seasons(ctx)
	require.NoError(t, err)
	require.Len(t, seasons, 4)
	assert.Equal(t, 2023, seasons[0].Year)

	races, err := s.Races(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, races, 20)

	races, err = s.Races(ctx, 2021)
	require.NoError(t, err)
	require.Len(t, races, 5)
	assert.Equal(t, "2021 Monaco Grand Prix", races[4].Name)

	teams, err := s.Teams(ctx)
	require.NoError(t, err)
	assert.Len(t, teams, 10)

	d, err := s.Driver(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "HAM", d.Abbreviation)
	assert.Equal(t, "Mercedes", d.Team)
}

func TestSyntheticResults(t *testing.T) {
	ctx := context.Background()
	s := NewSynthetic(42)

	drivers, err := s.Drivers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, drivers, 20)

	for i, d := range drivers {
		res, err := s.Result(ctx, 1, d.ID)
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Position, "drivers come in finishing order")

		switch res.Position {
		case 1:
			assert.Equal(t, 25.0, res.Points)
		case 10:
			assert.Equal(t, 1.0, res.Points)
		case 11:
			assert.Equal(t, 0.0, res.Points)
		}

		laps, err := s.Laps(ctx, 1, d.ID)
		require.NoError(t, err)
		assert.Len(t, laps, res.LapsCompleted)

		if res.Status == "Finished" {
			assert.Equal(t, raceLaps, res.LapsCompleted)
			assert.Equal(t, len(pitLaps), analytics.Summarize(laps).PitStops, d.Abbreviation)
		} else {
			assert.Greater(t, res.Position, 18)
		}
	}
}

func TestSyntheticLapsAreConsistent(t *testing.T) {
	laps, err := NewSynthetic(3).Laps(context.Background(), 5, 4)
	require.NoError(t, err)
	for _, l := range laps {
		assert.True(t, l.Valid())
		assert.InDelta(t, l.Seconds(), analytics.SectorSum(l), 1e-6, "lap %d", l.Lap)
		assert.GreaterOrEqual(t, l.Position, 1)
		assert.LessOrEqual(t, l.Position, 20)
	}
}

func TestSyntheticNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewSynthetic(1)

	_, err := s.Race(ctx, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Drivers(ctx, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Driver(ctx, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Result(ctx, 1, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.Laps(ctx, 1, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFindDriver(t *testing.T) {
	ctx := context.Background()
	s := NewSynthetic(1)

	tests := []struct {
		key    string
		wantID int
	}{
		{key: "1", wantID: 1},
		{key: "ham", wantID: 1},
		{key: "VER", wantID: 3},
		{key: " 5 ", wantID: 5},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			d, err := FindDriver(ctx, s, 1, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, d.ID)
		})
	}

	_, err := FindDriver(ctx, s, 1, "XXX")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = FindDriver(ctx, s, 99, "HAM")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDriverRace(t *testing.T) {
	ctx := context.Background()
	s := NewSynthetic(5)

	res, err := s.Result(ctx, 2, 3)
	require.NoError(t, err)

	sum, err := DriverRace(ctx, s, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, res.Position, sum.Position)
	assert.Equal(t, res.Points, sum.Points)
	assert.Equal(t, res.LapsCompleted, sum.LapsCompleted)
	assert.NotEqual(t, analytics.Unknown, sum.BestLap)

	_, err = DriverRace(ctx, s, 2, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOpen(t *testing.T) {
	repo, err := Open(config.Datasource{Kind: config.KindSynthetic, Seed: 1}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Synthetic{}, repo)

	repo, err = Open(config.Datasource{Kind: config.KindSQLite, DB: filepath.Join(t.TempDir(), "f1.db")}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, repo)
	require.NoError(t, repo.Close())

	_, err = Open(config.Datasource{Kind: "csv"}, zap.NewNop())
	assert.Error(t, err)
}

func TestSQLiteMatchesSeedSource(t *testing.T) {
	ctx := context.Background()
	src := NewSynthetic(11)
	db, err := NewSQLite(filepath.Join(t.TempDir(), "f1.db"), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Seed(ctx, src))
	// seeding twice replaces rather than duplicates
	require.NoError(t, db.Seed(ctx, src))

	same := func(name string, want, got any) {
		t.Helper()
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s mismatch (-synthetic +sqlite):\n%s", name, diff)
		}
	}

	seasonsW, _ := src.Seasons(ctx)
	seasonsG, err := db.Seasons(ctx)
	require.NoError(t, err)
	same("seasons", seasonsW, seasonsG)

	teamsW, _ := src.Teams(ctx)
	teamsG, err := db.Teams(ctx)
	require.NoError(t, err)
	same("teams", teamsW, teamsG)

	racesW, _ := src.Races(ctx, 0)
	racesG, err := db.Races(ctx, 0)
	require.NoError(t, err)
	same("races", racesW, racesG)

	racesW, _ = src.Races(ctx, 2022)
	racesG, err = db.Races(ctx, 2022)
	require.NoError(t, err)
	same("races 2022", racesW, racesG)

	for _, raceID := range []int{1, 15} {
		driversW, _ := src.Drivers(ctx, raceID)
		driversG, err := db.Drivers(ctx, raceID)
		require.NoError(t, err)
		same("drivers", driversW, driversG)

		for _, d := range driversW[:3] {
			resW, _ := src.Result(ctx, raceID, d.ID)
			resG, err := db.Result(ctx, raceID, d.ID)
			require.NoError(t, err)
			same("result", resW, resG)

			lapsW, _ := src.Laps(ctx, raceID, d.ID)
			lapsG, err := db.Laps(ctx, raceID, d.ID)
			require.NoError(t, err)
			same("laps", lapsW, lapsG)

			sumW, _ := DriverRace(ctx, src, raceID, d.ID)
			sumG, err := DriverRace(ctx, db, raceID, d.ID)
			require.NoError(t, err)
			same("summary", sumW, sumG)
		}
	}

	d, err := db.Driver(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "VER", d.Abbreviation)
	assert.Equal(t, "Red Bull", d.Team)
}

func TestSQLiteNotFound(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLite(filepath.Join(t.TempDir(), "f1.db"), zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Race(ctx, 1)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = db.Drivers(ctx, 1)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = db.Driver(ctx, 1)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = db.Result(ctx, 1, 1)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = db.Laps(ctx, 1, 1)
	assert.True(t, errors.Is(err, ErrNotFound))

	seasons, err := db.Seasons(ctx)
	require.NoError(t, err)
	assert.Empty(t, seasons)
}
