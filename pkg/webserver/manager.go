package webserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"f1dashboard/pkg/config"
	"f1dashboard/pkg/dashboard"
)

type Manager struct {
	r      *mux.Router
	cfg    config.Server
	dash   *dashboard.Dashboard
	logger *zap.Logger
}

func NewManager(cfg config.Server, dash *dashboard.Dashboard, logger *zap.Logger) *Manager {
	m := &Manager{
		r:      mux.NewRouter(),
		cfg:    cfg,
		dash:   dash,
		logger: logger,
	}

	m.apiHandlers()
	return m
}

// Router is exposed so other components (the live map) can mount their
// handlers next to the API.
func (m *Manager) Router() *mux.Router {
	return m.r
}

func (m *Manager) Handler() http.Handler {
	return m.r
}

// Debug logs every registered route.
func (m *Manager) Debug() {
	_ = m.r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := route.GetMethods()
		queries, _ := route.GetQueriesTemplates()
		m.logger.Debug("route",
			zap.String("path", pathTemplate),
			zap.String("methods", strings.Join(methods, ",")),
			zap.String("queries", strings.Join(queries, ",")))
		return nil
	})
}

// Serve listens until ctx is cancelled, then shuts the server down,
// waiting up to ten seconds for open requests.
func (m *Manager) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         m.cfg.Addr,
		WriteTimeout: m.cfg.WriteTimeout,
		ReadTimeout:  m.cfg.ReadTimeout,
		IdleTimeout:  time.Second * 60,
		Handler:      m.r,
	}

	errc := make(chan error, 1)
	go func() {
		m.logger.Info("webserver listening", zap.String("addr", m.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "webserver")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	m.logger.Info("webserver shutting down")
	return srv.Shutdown(shutdownCtx)
}
