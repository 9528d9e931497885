package dashboard

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"f1dashboard/pkg/analytics"
	"f1dashboard/pkg/config"
	"f1dashboard/pkg/datasource"
	"f1dashboard/pkg/render"
)

func newDashboard() *Dashboard {
	return New(datasource.NewSynthetic(4), config.Default().Render, zap.NewNop())
}

func TestSummary(t *testing.T) {
	ds, err := newDashboard().Summary(context.Background(), 1, "ver")
	require.NoError(t, err)
	assert.Equal(t, "VER", ds.Driver.Abbreviation)
	assert.Positive(t, ds.Summary.Position)
	assert.NotEqual(t, analytics.Unknown, ds.Summary.BestLap)
}

func TestCompare(t *testing.T) {
	ctx := context.Background()
	d := newDashboard()

	c, err := d.Compare(ctx, 1, "HAM", "VER")
	require.NoError(t, err)
	assert.Equal(t, "2023 Bahrain Grand Prix", c.Race.Name)
	require.Len(t, c.Rows, 7)
	assert.Equal(t, analytics.MetricPosition, c.Rows[0].Metric)
	assert.Equal(t, c.Rows, analytics.Compare(c.Driver1.Summary, c.Driver2.Summary))

	_, err = d.Compare(ctx, 1, "HAM", "1")
	assert.True(t, errors.Is(err, ErrBadRequest))

	_, err = d.Compare(ctx, 1, "HAM", "ZZZ")
	assert.True(t, errors.Is(err, datasource.ErrNotFound))

	_, err = d.Compare(ctx, 42, "HAM", "VER")
	assert.True(t, errors.Is(err, datasource.ErrNotFound))
}

func TestLapChart(t *testing.T) {
	ctx := context.Background()
	d := newDashboard()

	s, err := d.LapChart(ctx, 1, []string{"HAM", " RUS ", "", "LEC"})
	require.NoError(t, err)
	require.Len(t, s.Series, 3)
	assert.Equal(t, 800.0, s.Width)
	assert.Contains(t, s.Title, "2023 Bahrain Grand Prix")

	assert.Equal(t, "HAM", s.Series[0].Name)
	assert.Equal(t, render.TeamColor("Mercedes"), s.Series[0].Color)
	// same team as HAM, so it gets a series colour
	assert.Equal(t, render.DefaultSeriesColors[1], s.Series[1].Color)
	assert.Equal(t, render.TeamColor("Ferrari"), s.Series[2].Color)
	assert.NotEmpty(t, s.Series[2].Values)

	_, err = d.LapChart(ctx, 1, []string{" "})
	assert.True(t, errors.Is(err, ErrBadRequest))
}

func TestRaceMap(t *testing.T) {
	s, err := newDashboard().RaceMap(context.Background(), 3, 1200)
	require.NoError(t, err)
	assert.Equal(t, "2023 Australian Grand Prix", s.Title)
	require.Len(t, s.Drivers, 20)
	assert.NotEmpty(t, render.Model(s))

	_, err = newDashboard().RaceMap(context.Background(), 0, 0)
	assert.True(t, errors.Is(err, datasource.ErrNotFound))
}
