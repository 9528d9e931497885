package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"f1dashboard/pkg/dashboard"
	"f1dashboard/pkg/livemap"
	"f1dashboard/pkg/notification"
	"f1dashboard/pkg/pubsub"
	"f1dashboard/pkg/webserver"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the REST service and the live map",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	dash := dashboard.New(e.repo, e.cfg.Render, e.logger)
	m := webserver.NewManager(e.cfg.Server, dash, e.logger)

	g, ctx := errgroup.WithContext(ctx)
	if e.cfg.Replay.Race > 0 {
		replay, err := dash.Replay(ctx, e.cfg.Replay.Race)
		if err != nil {
			return errors.Wrap(err, "preparing live map")
		}
		ps := pubsub.NewPubSub[livemap.Frame](1)
		lm := livemap.NewLiveMap(replay, ps, e.cfg.Replay.Tick, e.logger)
		defer lm.Stop()
		lm.AddHandlers(m.Router())

		var notifier *notification.Manager
		if hooks := e.cfg.Notify.Webhooks; len(hooks) > 0 {
			notifier = notification.NewManager(e.logger, notification.NewWebhook(nil, hooks...))
		}

		g.Go(func() error {
			last, err := replay.Run(ctx, ps, e.cfg.Replay.Tick, e.cfg.Replay.Speed)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return err
			}
			if notifier != nil {
				// a failed notification is logged by the manager
				_ = notifier.RaceFinished(ctx, replay.Race(), last)
			}
			return nil
		})
		e.logger.Info("live map enabled", zap.String("race", replay.Race().Name))
	}
	m.Debug()

	g.Go(func() error {
		return m.Serve(ctx)
	})
	return g.Wait()
}
