package livemap

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"f1dashboard/pkg/analytics"
	"f1dashboard/pkg/datasource"
	"f1dashboard/pkg/pubsub"
	"f1dashboard/pkg/render"
)

var testOptions = Options{Width: 800, Height: 600, Padding: 30, Flatness: 1}

func newReplay(t *testing.T, raceID int) *Replay {
	t.Helper()
	r, err := NewReplay(context.Background(), datasource.NewSynthetic(9), raceID, testOptions, zap.NewNop())
	require.NoError(t, err)
	return r
}

func TestNewReplayPicksCircuit(t *testing.T) {
	r := newReplay(t, 1)
	assert.Equal(t, "2023 Bahrain Grand Prix", r.Race().Name)
	assert.Equal(t, 1, r.Circuit().ID)

	// no outline for Baku, the default oval is used
	r = newReplay(t, 4)
	assert.Equal(t, 0, r.Circuit().ID)

	_, err := NewReplay(context.Background(), datasource.NewSynthetic(9), 99, testOptions, zap.NewNop())
	assert.ErrorIs(t, err, datasource.ErrNotFound)
}

func TestFrameAtStart(t *testing.T) {
	r := newReplay(t, 1)
	f := r.Frame(0)

	require.Len(t, f.Cars, 20)
	assert.False(t, f.Finished)
	start := r.viewport.Apply(r.mapper.PointAtFraction(0))
	for i, c := range f.Cars {
		assert.Equal(t, i+1, c.Position)
		assert.Equal(t, 1, c.Lap)
		assert.InDelta(t, start.X, c.X, 1e-9)
		assert.InDelta(t, start.Y, c.Y, 1e-9)
		assert.Equal(t, render.Hex(render.TeamColor(c.Team)), c.Color)
	}
}

func TestFrameOrdersByDistance(t *testing.T) {
	r := newReplay(t, 2)
	f := r.Frame(45 * 60)

	require.Len(t, f.Cars, 20)
	for i := 1; i < len(f.Cars); i++ {
		prev, cur := f.Cars[i-1], f.Cars[i]
		assert.GreaterOrEqual(t, prev.Lap, cur.Lap, "%s ahead of %s", prev.Code, cur.Code)
	}
	for _, c := range f.Cars {
		assert.GreaterOrEqual(t, c.Fraction, 0.0)
		assert.Less(t, c.Fraction, 1.0)
	}
}

func TestFrameFinished(t *testing.T) {
	r := newReplay(t, 1)
	f := r.Frame(4 * 3600)
	assert.True(t, f.Finished)
	for _, c := range f.Cars {
		assert.True(t, c.Finished, c.Code)
	}
}

func TestSnapshot(t *testing.T) {
	r := newReplay(t, 1)

	s := r.Snapshot(0)
	require.Len(t, s.Drivers, 20)
	for _, d := range s.Drivers {
		assert.Zero(t, d.Fraction)
	}

	f := r.Frame(600)
	s = r.Snapshot(600)
	byCode := map[string]float64{}
	for _, c := range f.Cars {
		byCode[c.Code] = c.Fraction
	}
	for _, d := range s.Drivers {
		assert.Equal(t, byCode[d.Code], d.Fraction, d.Code)
	}
}

func TestTrackHasNoDrivers(t *testing.T) {
	prims := newReplay(t, 1).Track()
	assert.Empty(t, render.Filter(prims, render.LayerDriver))
	assert.Empty(t, render.Filter(prims, render.LayerLabel))
	assert.NotEmpty(t, render.Filter(prims, render.LayerLegend))
}

func TestRunPublishesUntilFinished(t *testing.T) {
	r := newReplay(t, 1)
	ps := pubsub.NewPubSub[Frame](10000)
	frames := ps.Subscribe(Topic(1))

	last, err := r.Run(context.Background(), ps, time.Millisecond, 60*1000)
	require.NoError(t, err)
	assert.True(t, last.Finished)

	var got []Frame
	for len(frames) > 0 {
		got = append(got, <-frames)
	}
	require.NotEmpty(t, got)
	assert.Zero(t, got[0].Elapsed)
	assert.True(t, got[len(got)-1].Finished)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Elapsed, got[i-1].Elapsed)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	r := newReplay(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	last, err := r.Run(ctx, pubsub.NewPubSub[Frame](1), time.Hour, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, last.Finished)

	_, err = r.Run(context.Background(), pubsub.NewPubSub[Frame](1), 0, 1)
	assert.Error(t, err)
}

func newServer(t *testing.T) (*LiveMap, *pubsub.PubSub[Frame], *httptest.Server) {
	t.Helper()
	ps := pubsub.NewPubSub[Frame](16)
	lm := NewLiveMap(newReplay(t, 1), ps, 10*time.Millisecond, zap.NewNop())
	router := mux.NewRouter()
	lm.AddHandlers(router)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		lm.Stop()
	})
	return lm, ps, srv
}

func TestLiveMapFollowsPublishedFrames(t *testing.T) {
	lm, ps, srv := newServer(t)
	assert.Len(t, lm.Last().Cars, 20)

	ps.Publish(Topic(1), Frame{Race: 1, Elapsed: 42})
	assert.Eventually(t, func() bool { return lm.Last().Elapsed == 42 }, time.Second, 5*time.Millisecond)

	resp, err := http.Get(srv.URL + "/live/frame")
	require.NoError(t, err)
	defer resp.Body.Close()
	var f Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&f))
	assert.Equal(t, 42.0, f.Elapsed)
}

func TestLiveMapPages(t *testing.T) {
	_, _, srv := newServer(t)

	resp, err := http.Get(srv.URL + "/live")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "2023 Bahrain Grand Prix")
	assert.Contains(t, string(body), "/live/ws")

	resp, err = http.Get(srv.URL + "/live/track.svg")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "<svg"))
}

func TestLiveMapWebsocket(t *testing.T) {
	_, _, srv := newServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("start")))
	for i := 0; i < 2; i++ {
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		var f Frame
		require.NoError(t, json.Unmarshal(msg, &f))
		assert.Equal(t, 1, f.Race)
		assert.Len(t, f.Cars, 20)
	}
}

// untimedRepo hides every lap time of one driver.
type untimedRepo struct {
	datasource.Repository
	driverID int
}

func (r untimedRepo) Laps(ctx context.Context, raceID, driverID int) ([]analytics.LapRecord, error) {
	laps, err := r.Repository.Laps(ctx, raceID, driverID)
	if err != nil || driverID != r.driverID {
		return laps, err
	}
	out := make([]analytics.LapRecord, len(laps))
	for i, l := range laps {
		l.Time = "DNF"
		out[i] = l
	}
	return out, nil
}

func TestReplayFinishesWithUntimedDriver(t *testing.T) {
	repo := untimedRepo{Repository: datasource.NewSynthetic(9), driverID: 1}
	r, err := NewReplay(context.Background(), repo, 1, testOptions, zap.NewNop())
	require.NoError(t, err)

	f := r.Frame(0)
	assert.False(t, f.Finished)
	ham, ok := lo.Find(f.Cars, func(c Car) bool { return c.Code == "HAM" })
	require.True(t, ok)
	assert.True(t, ham.Finished)
	assert.Zero(t, ham.Lap)

	assert.True(t, r.Frame(4*3600).Finished)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	last, err := r.Run(ctx, pubsub.NewPubSub[Frame](1), time.Millisecond, 60*1000)
	assert.NoError(t, err)
	assert.True(t, last.Finished)
}

func TestFrameFinishOrder(t *testing.T) {
	r := newReplay(t, 1)
	f := r.Frame(4 * 3600)
	for i := 1; i < len(f.Cars); i++ {
		prev, cur := r.entries[f.Cars[i-1].Code], r.entries[f.Cars[i].Code]
		if len(analytics.LapTimeSeries(prev.laps)) != len(analytics.LapTimeSeries(cur.laps)) {
			continue
		}
		assert.LessOrEqual(t, raceTime(prev.laps), raceTime(cur.laps), "%s ahead of %s", f.Cars[i-1].Code, f.Cars[i].Code)
	}
}

func raceTime(laps []analytics.LapRecord) float64 {
	return lo.Sum(analytics.LapTimeSeries(laps))
}
