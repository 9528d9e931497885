package webserver

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"f1dashboard/pkg/dashboard"
	"f1dashboard/pkg/datasource"
	"f1dashboard/pkg/helper"
	"f1dashboard/pkg/render"
	"f1dashboard/pkg/track"
)

func (m *Manager) apiHandlers() {
	api := m.r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/seasons", m.seasonsHandler()).Methods(http.MethodGet)
	api.HandleFunc("/races", m.racesHandler()).Methods(http.MethodGet)
	api.HandleFunc("/races/{race:[0-9]+}", m.raceHandler()).Methods(http.MethodGet)
	api.HandleFunc("/races/{race:[0-9]+}/drivers", m.driversHandler()).Methods(http.MethodGet)
	api.HandleFunc("/races/{race:[0-9]+}/drivers/{driver}/laps", m.lapsHandler()).Methods(http.MethodGet)
	api.HandleFunc("/races/{race:[0-9]+}/drivers/{driver}/summary", m.summaryHandler()).Methods(http.MethodGet)
	api.HandleFunc("/races/{race:[0-9]+}/compare", m.compareHandler()).Methods(http.MethodGet)
	api.HandleFunc("/races/{race:[0-9]+}/chart.{format:svg|png}", m.chartHandler()).Methods(http.MethodGet)
	api.HandleFunc("/races/{race:[0-9]+}/map.{format:svg|png}", m.raceMapHandler()).Methods(http.MethodGet)
	api.HandleFunc("/teams", m.teamsHandler()).Methods(http.MethodGet)
	api.HandleFunc("/circuits", m.circuitsHandler()).Methods(http.MethodGet)
	api.HandleFunc("/circuits/{circuit:[0-9]+}/point", m.pointHandler()).Methods(http.MethodGet)
	api.HandleFunc("/circuits/{circuit:[0-9]+}/map.{format:svg|png}", m.circuitMapHandler()).Methods(http.MethodGet)
}

const maxImageSide = 4096

type apiError struct {
	Error string `json:"error"`
}

func (m *Manager) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		m.logger.Error("encoding response", zap.Error(err))
		http.Error(w, `{"error":"encoding response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError maps domain errors to status codes: unknown entities are 404,
// bad input 400 and anything else 500.
func (m *Manager) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, datasource.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, dashboard.ErrBadRequest):
		status = http.StatusBadRequest
	default:
		m.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	m.writeJSON(w, status, apiError{Error: err.Error()})
}

func (m *Manager) writeImage(w http.ResponseWriter, r *http.Request, format string, width, height int, prims []render.Primitive) {
	var buf bytes.Buffer
	var err error
	if format == "png" {
		w.Header().Set("Content-Type", "image/png")
		err = render.WritePNG(&buf, width, height, prims)
	} else {
		w.Header().Set("Content-Type", "image/svg+xml")
		err = render.WriteSVG(&buf, width, height, prims)
	}
	if err != nil {
		w.Header().Del("Content-Type")
		m.writeError(w, r, err)
		return
	}
	w.Header().Set("ETag", `"`+helper.ToID(buf.String())+`"`)
	_, _ = w.Write(buf.Bytes())
}

func intVar(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, errors.Wrapf(dashboard.ErrBadRequest, "invalid %s %q", name, mux.Vars(r)[name])
	}
	return v, nil
}

func floatQuery(r *http.Request, name string, def float64) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(dashboard.ErrBadRequest, "invalid %s %q", name, s)
	}
	return v, nil
}

func (m *Manager) seasonsHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		seasons, err := m.dash.Repository().Seasons(r.Context())
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		m.writeJSON(w, http.StatusOK, seasons)
	}
}

func (m *Manager) racesHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		year := 0
		if s := r.URL.Query().Get("year"); s != "" {
			y, err := strconv.Atoi(s)
			if err != nil {
				m.writeError(w, r, errors.Wrapf(dashboard.ErrBadRequest, "invalid year %q", s))
				return
			}
			year = y
		}
		races, err := m.dash.Repository().Races(r.Context(), year)
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		m.writeJSON(w, http.StatusOK, races)
	}
}

func (m *Manager) raceHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		raceID, err := intVar(r, "race")
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		race, err := m.dash.Repository().Race(r.Context(), raceID)
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		m.writeJSON(w, http.StatusOK, race)
	}
}

func (m *Manager) driversHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		raceID, err := intVar(r, "race")
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		drivers, err := m.dash.Repository().Drivers(r.Context(), raceID)
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		m.writeJSON(w, http.StatusOK, drivers)
	}
}

func (m *Manager) teamsHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := m.dash.Repository().Teams(r.Context())
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		m.writeJSON(w, http.StatusOK, teams)
	}
}

func (m *Manager) lapsHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		raceID, err := intVar(r, "race")
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		ctx := r.Context()
		drv, err := datasource.FindDriver(ctx, m.dash.Repository(), raceID, mux.Vars(r)["driver"])
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		laps, err := m.dash.Repository().Laps(ctx, raceID, drv.ID)
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		m.writeJSON(w, http.StatusOK, laps)
	}
}

func (m *Manager) summaryHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		raceID, err := intVar(r, "race")
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		s, err := m.dash.Summary(r.Context(), raceID, mux.Vars(r)["driver"])
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		m.writeJSON(w, http.StatusOK, s)
	}
}

func (m *Manager) compareHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		raceID, err := intVar(r, "race")
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		q := r.URL.Query()
		d1, d2 := q.Get("driver1"), q.Get("driver2")
		if d1 == "" || d2 == "" {
			m.writeError(w, r, errors.Wrap(dashboard.ErrBadRequest, "driver1 and driver2 are required"))
			return
		}
		c, err := m.dash.Compare(r.Context(), raceID, d1, d2)
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		m.writeJSON(w, http.StatusOK, c)
	}
}

func (m *Manager) chartHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		raceID, err := intVar(r, "race")
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		keys := strings.Split(r.URL.Query().Get("drivers"), ",")
		s, err := m.dash.LapChart(r.Context(), raceID, keys)
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		m.writeImage(w, r, mux.Vars(r)["format"], int(s.Width), int(s.Height), render.ChartModel(s))
	}
}

func (m *Manager) raceMapHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		raceID, err := intVar(r, "race")
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		elapsed, err := floatQuery(r, "t", 0)
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		s, err := m.dash.RaceMap(r.Context(), raceID, elapsed)
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		m.writeImage(w, r, mux.Vars(r)["format"], int(s.Width), int(s.Height), render.Model(s))
	}
}

func (m *Manager) circuitsHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		m.writeJSON(w, http.StatusOK, track.Circuits())
	}
}

type pointResponse struct {
	Circuit  int     `json:"circuit"`
	Fraction float64 `json:"fraction"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// pointHandler answers where a lap fraction lies, in path coordinates or,
// with width and height, in viewport coordinates.
func (m *Manager) pointHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intVar(r, "circuit")
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		f, err := floatQuery(r, "f", 0)
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		width, err := floatQuery(r, "width", 0)
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		height, err := floatQuery(r, "height", 0)
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		padding, err := floatQuery(r, "padding", render.DefaultPadding)
		if err != nil {
			m.writeError(w, r, err)
			return
		}

		mapper, err := track.NewMapper(track.CircuitByID(id).Path())
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		p := mapper.PointAtFraction(f)
		if width > 0 && height > 0 {
			p = mapper.TransformToViewport(width, height, padding).Apply(p)
		}
		m.writeJSON(w, http.StatusOK, pointResponse{Circuit: track.CircuitByID(id).ID, Fraction: f, X: p.X, Y: p.Y})
	}
}

func (m *Manager) circuitMapHandler() func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := intVar(r, "circuit")
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		c := track.CircuitByID(id)
		mapper, err := track.NewMapper(c.Path())
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		cfg := m.dash.RenderConfig()
		width, err := floatQuery(r, "width", float64(cfg.Width))
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		height, err := floatQuery(r, "height", float64(cfg.Height))
		if err != nil {
			m.writeError(w, r, err)
			return
		}
		if width <= 0 || height <= 0 || width > maxImageSide || height > maxImageSide {
			m.writeError(w, r, errors.Wrapf(dashboard.ErrBadRequest, "invalid size %gx%g", width, height))
			return
		}
		s := render.State{
			Mapper:  mapper,
			Width:   width,
			Height:  height,
			Padding: cfg.Padding,
			Title:   c.Name,
		}
		m.writeImage(w, r, mux.Vars(r)["format"], int(width), int(height), render.Model(s))
	}
}
