package datasource

import (
	"database/sql"
	"fmt"

	"f1dashboard/pkg/analytics"
)

func buildCreateTables() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS seasons (
			id INTEGER PRIMARY KEY,
			year INTEGER NOT NULL UNIQUE,
			name TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS races (
			id INTEGER PRIMARY KEY,
			season_id INTEGER REFERENCES seasons(id),
			name TEXT NOT NULL,
			circuit_name TEXT NOT NULL,
			date TEXT NOT NULL,
			country TEXT NOT NULL,
			city TEXT,
			round_number INTEGER NOT NULL,
			UNIQUE(season_id, name));`,
		`CREATE TABLE IF NOT EXISTS teams (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			full_name TEXT NOT NULL,
			nationality TEXT,
			base TEXT);`,
		`CREATE TABLE IF NOT EXISTS drivers (
			id INTEGER PRIMARY KEY,
			driver_number INTEGER NOT NULL,
			abbreviation TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			full_name TEXT NOT NULL,
			team_id INTEGER REFERENCES teams(id),
			UNIQUE(driver_number, team_id));`,
		`CREATE TABLE IF NOT EXISTS race_results (
			id INTEGER PRIMARY KEY,
			race_id INTEGER REFERENCES races(id),
			driver_id INTEGER REFERENCES drivers(id),
			position INTEGER,
			points REAL,
			grid_position INTEGER,
			status TEXT,
			laps_completed INTEGER,
			UNIQUE(race_id, driver_id));`,
		`CREATE TABLE IF NOT EXISTS lap_data (
			id INTEGER PRIMARY KEY,
			race_id INTEGER REFERENCES races(id),
			driver_id INTEGER REFERENCES drivers(id),
			lap_number INTEGER NOT NULL,
			position INTEGER,
			lap_time TEXT,
			sector1_time TEXT,
			sector2_time TEXT,
			sector3_time TEXT,
			speed REAL,
			UNIQUE(race_id, driver_id, lap_number));`,
	}
}

const (
	raceFields   = "r.id, s.year, r.name, r.circuit_name, r.date, r.country, COALESCE(r.city, ''), r.round_number"
	driverFields = "d.id, d.driver_number, d.abbreviation, d.first_name, d.last_name, d.full_name, COALESCE(d.team_id, 0), COALESCE(t.name, '')"
)

func buildSelectSeasons() (string, func(*sql.Rows) ([]Season, error)) {
	return `SELECT id, year, name FROM seasons ORDER BY year DESC`, processSeasonRows
}

func processSeasonRows(rows *sql.Rows) ([]Season, error) {
	defer rows.Close()

	seasons := make([]Season, 0)
	for rows.Next() {
		var s Season
		if err := rows.Scan(&s.ID, &s.Year, &s.Name); err != nil {
			return seasons, err
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}

func buildSelectRaces(year int) (string, []any, func(*sql.Rows) ([]Race, error)) {
	q := fmt.Sprintf(`SELECT %s FROM races r JOIN seasons s ON s.id = r.season_id`, raceFields)
	if year == 0 {
		return q + ` ORDER BY s.year DESC, r.round_number`, nil, processRaceRows
	}
	return q + ` WHERE s.year = ? ORDER BY r.round_number`, []any{year}, processRaceRows
}

func buildSelectRace(id int) (string, []any, func(*sql.Rows) ([]Race, error)) {
	return fmt.Sprintf(`SELECT %s FROM races r JOIN seasons s ON s.id = r.season_id WHERE r.id = ?`, raceFields),
		[]any{id}, processRaceRows
}

func processRaceRows(rows *sql.Rows) ([]Race, error) {
	defer rows.Close()

	races := make([]Race, 0)
	for rows.Next() {
		var r Race
		err := rows.Scan(&r.ID, &r.Year, &r.Name, &r.CircuitName, &r.Date, &r.Country, &r.City, &r.Round)
		if err != nil {
			return races, err
		}
		races = append(races, r)
	}
	return races, rows.Err()
}

func buildSelectTeams() (string, func(*sql.Rows) ([]Team, error)) {
	return `SELECT id, name, full_name, COALESCE(nationality, ''), COALESCE(base, '') FROM teams ORDER BY id`, processTeamRows
}

func processTeamRows(rows *sql.Rows) ([]Team, error) {
	defer rows.Close()

	teams := make([]Team, 0)
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.FullName, &t.Nationality, &t.Base); err != nil {
			return teams, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func buildSelectRaceDrivers(raceID int) (string, []any, func(*sql.Rows) ([]Driver, error)) {
	return fmt.Sprintf(`SELECT %s FROM race_results rr
		JOIN drivers d ON d.id = rr.driver_id
		LEFT JOIN teams t ON t.id = d.team_id
		WHERE rr.race_id = ?
		ORDER BY CASE WHEN rr.position > 0 THEN rr.position ELSE 9999 END, d.id`, driverFields),
		[]any{raceID}, processDriverRows
}

func buildSelectDriver(id int) (string, []any, func(*sql.Rows) ([]Driver, error)) {
	return fmt.Sprintf(`SELECT %s FROM drivers d LEFT JOIN teams t ON t.id = d.team_id WHERE d.id = ?`, driverFields),
		[]any{id}, processDriverRows
}

func processDriverRows(rows *sql.Rows) ([]Driver, error) {
	defer rows.Close()

	drivers := make([]Driver, 0)
	for rows.Next() {
		var d Driver
		err := rows.Scan(&d.ID, &d.Number, &d.Abbreviation, &d.FirstName, &d.LastName, &d.FullName, &d.TeamID, &d.Team)
		if err != nil {
			return drivers, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func buildSelectResult(raceID, driverID int) (string, []any, func(*sql.Rows) ([]Result, error)) {
	return `SELECT race_id, driver_id, COALESCE(position, 0), COALESCE(points, 0), COALESCE(grid_position, 0),
			COALESCE(status, ''), COALESCE(laps_completed, 0)
		FROM race_results WHERE race_id = ? AND driver_id = ?`,
		[]any{raceID, driverID}, processResultRows
}

func processResultRows(rows *sql.Rows) ([]Result, error) {
	defer rows.Close()

	results := make([]Result, 0)
	for rows.Next() {
		var r Result
		err := rows.Scan(&r.RaceID, &r.DriverID, &r.Position, &r.Points, &r.Grid, &r.Status, &r.LapsCompleted)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func buildSelectLaps(raceID, driverID int) (string, []any, func(*sql.Rows) ([]analytics.LapRecord, error)) {
	return `SELECT lap_number, COALESCE(position, 0), COALESCE(lap_time, ''),
			COALESCE(sector1_time, ''), COALESCE(sector2_time, ''), COALESCE(sector3_time, ''), COALESCE(speed, 0)
		FROM lap_data WHERE race_id = ? AND driver_id = ? ORDER BY lap_number`,
		[]any{raceID, driverID}, processLapRows
}

func processLapRows(rows *sql.Rows) ([]analytics.LapRecord, error) {
	defer rows.Close()

	laps := make([]analytics.LapRecord, 0)
	for rows.Next() {
		var l analytics.LapRecord
		err := rows.Scan(&l.Lap, &l.Position, &l.Time, &l.Sectors[0], &l.Sectors[1], &l.Sectors[2], &l.Speed)
		if err != nil {
			return laps, err
		}
		laps = append(laps, l)
	}
	return laps, rows.Err()
}

const (
	insertSeason = `INSERT OR REPLACE INTO seasons (id, year, name) VALUES (?, ?, ?)`
	insertTeam   = `INSERT OR REPLACE INTO teams (id, name, full_name, nationality, base) VALUES (?, ?, ?, ?, ?)`
	insertRace   = `INSERT OR REPLACE INTO races (id, season_id, name, circuit_name, date, country, city, round_number)
		VALUES (?, (SELECT id FROM seasons WHERE year = ?), ?, ?, ?, ?, ?, ?)`
	insertDriver = `INSERT OR REPLACE INTO drivers (id, driver_number, abbreviation, first_name, last_name, full_name, team_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	insertResult = `INSERT OR REPLACE INTO race_results (race_id, driver_id, position, points, grid_position, status, laps_completed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	insertLap = `INSERT OR REPLACE INTO lap_data (race_id, driver_id, lap_number, position, lap_time,
		sector1_time, sector2_time, sector3_time, speed) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
)
