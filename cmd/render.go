package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"f1dashboard/pkg/dashboard"
	"f1dashboard/pkg/render"
	"f1dashboard/pkg/track"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw track maps and lap charts to SVG or PNG files",
	}
	cmd.AddCommand(newRenderMapCmd())
	cmd.AddCommand(newRenderCircuitCmd())
	cmd.AddCommand(newRenderChartCmd())
	return cmd
}

// save writes primitives to out; the extension picks the format.
func save(out string, width, height int, prims []render.Primitive) error {
	switch strings.ToLower(filepath.Ext(out)) {
	case ".svg":
		return render.SaveSVG(out, width, height, prims)
	case ".png":
		return render.SavePNG(out, width, height, prims)
	default:
		return errors.Errorf("unsupported output %q, use .svg or .png", out)
	}
}

func newRenderMapCmd() *cobra.Command {
	var (
		raceID  int
		elapsed float64
		out     string
	)
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Draw a race's circuit with the drivers placed at a race time",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			s, err := dashboard.New(e.repo, e.cfg.Render, e.logger).RaceMap(cmd.Context(), raceID, elapsed)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("race-%d.svg", raceID)
			}
			if err := save(out, int(s.Width), int(s.Height), render.Model(s)); err != nil {
				return err
			}
			e.logger.Info("map written", zap.String("file", out))
			return nil
		},
	}
	cmd.Flags().IntVar(&raceID, "race", 1, "race id")
	cmd.Flags().Float64Var(&elapsed, "at", 0, "race time in seconds")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, .svg or .png")
	return cmd
}

func newRenderCircuitCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "circuit NAME|ID",
		Short: "Draw a circuit outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			c, err := lookupCircuit(args[0])
			if err != nil {
				return err
			}
			mapper, err := track.NewMapperWithFlatness(c.Path(), e.cfg.Render.Flatness)
			if err != nil {
				return err
			}
			s := render.State{
				Mapper:  mapper,
				Width:   float64(e.cfg.Render.Width),
				Height:  float64(e.cfg.Render.Height),
				Padding: e.cfg.Render.Padding,
				Title:   c.Name,
			}
			if out == "" {
				out = fmt.Sprintf("circuit-%d.svg", c.ID)
			}
			if err := save(out, e.cfg.Render.Width, e.cfg.Render.Height, render.Model(s)); err != nil {
				return err
			}
			e.logger.Info("circuit written", zap.String("file", out), zap.Float64("length", mapper.Length()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, .svg or .png")
	return cmd
}

// lookupCircuit accepts a catalog id or a name mentioning the venue.
func lookupCircuit(key string) (track.Circuit, error) {
	if id, err := strconv.Atoi(key); err == nil {
		return track.CircuitByID(id), nil
	}
	c, ok := track.CircuitByName(key)
	if !ok {
		return c, errors.Errorf("unknown circuit %q", key)
	}
	return c, nil
}

func newRenderChartCmd() *cobra.Command {
	var (
		raceID int
		out    string
	)
	cmd := &cobra.Command{
		Use:   "chart DRIVER...",
		Short: "Draw the lap times of drivers in a race",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			s, err := dashboard.New(e.repo, e.cfg.Render, e.logger).LapChart(cmd.Context(), raceID, args)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("chart-%d.svg", raceID)
			}
			if err := save(out, int(s.Width), int(s.Height), render.ChartModel(s)); err != nil {
				return err
			}
			e.logger.Info("chart written", zap.String("file", out))
			return nil
		},
	}
	cmd.Flags().IntVar(&raceID, "race", 1, "race id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, .svg or .png")
	return cmd
}
