package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"f1dashboard/pkg/dashboard"
	"f1dashboard/pkg/datasource"
	"f1dashboard/pkg/report"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill the sqlite database with synthetic race data",
		Long: `Generates the synthetic seasons from --seed and writes them to the
sqlite database given by --db. Existing rows with the same keys are replaced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			db, ok := e.repo.(*datasource.SQLite)
			if !ok {
				db, err = datasource.NewSQLite(e.cfg.Datasource.DB, e.logger)
				if err != nil {
					return err
				}
				defer db.Close()
			}
			if err := db.Seed(cmd.Context(), datasource.NewSynthetic(e.cfg.Datasource.Seed)); err != nil {
				return err
			}
			e.logger.Info("seeded database",
				zap.String("db", e.cfg.Datasource.DB),
				zap.Int64("seed", e.cfg.Datasource.Seed))
			return nil
		},
	}
}

func newRacesCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "races",
		Short: "List the races of a season",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			races, err := e.repo.Races(cmd.Context(), year)
			if err != nil {
				return err
			}
			report.Races(cmd.OutOrStdout(), races)
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "season to list, all seasons when 0")
	return cmd
}

func newResultsCmd() *cobra.Command {
	var raceID int
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show the classification of a race",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			race, err := e.repo.Race(ctx, raceID)
			if err != nil {
				return err
			}
			drivers, err := e.repo.Drivers(ctx, raceID)
			if err != nil {
				return err
			}
			entries := make([]report.Entry, 0, len(drivers))
			for _, d := range drivers {
				res, err := e.repo.Result(ctx, raceID, d.ID)
				if err != nil && !errors.Is(err, datasource.ErrNotFound) {
					return err
				}
				entries = append(entries, report.Entry{Driver: d, Result: res})
			}
			report.Classification(cmd.OutOrStdout(), race, entries)
			return nil
		},
	}
	cmd.Flags().IntVar(&raceID, "race", 1, "race id")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var raceID int
	cmd := &cobra.Command{
		Use:   "compare DRIVER1 DRIVER2",
		Short: "Compare two drivers of a race",
		Long:  `Drivers are given by id or abbreviation, e.g. "compare --race 3 HAM VER".`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			c, err := dashboard.New(e.repo, e.cfg.Render, e.logger).Compare(cmd.Context(), raceID, args[0], args[1])
			if err != nil {
				return err
			}
			report.Comparison(cmd.OutOrStdout(), c)
			return nil
		},
	}
	cmd.Flags().IntVar(&raceID, "race", 1, "race id")
	return cmd
}

func newLapsCmd() *cobra.Command {
	var (
		raceID int
		info   string
	)
	cmd := &cobra.Command{
		Use:   "laps DRIVER",
		Short: "Show the laps of a driver in a race",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !lo.Contains(report.InfoTypes, info) {
				return errors.Errorf("--info must be one of %s", strings.Join(report.InfoTypes, ", "))
			}
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			ctx := cmd.Context()
			d, err := datasource.FindDriver(ctx, e.repo, raceID, args[0])
			if err != nil {
				return err
			}
			laps, err := e.repo.Laps(ctx, raceID, d.ID)
			if err != nil {
				return err
			}
			return report.Laps(cmd.OutOrStdout(), d, laps, info)
		},
	}
	cmd.Flags().IntVar(&raceID, "race", 1, "race id")
	cmd.Flags().StringVar(&info, "info", report.InfoTimes, "lap view: "+strings.Join(report.InfoTypes, ", "))
	return cmd
}
