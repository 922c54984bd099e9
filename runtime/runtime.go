package runtime

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/annotation/stamd/pool"
	"github.com/annotation/stamd/server"
)

// Runtime owns the running pool, HTTP server and janitor goroutine, and
// coordinates their startup and shutdown.
type Runtime struct {
	Params Params

	pool   *pool.StorePool
	server *server.Server
	log    *logrus.Entry

	janitorCtx    context.Context
	janitorCancel context.CancelFunc
}

// NewRuntime constructs the Store Pool and the HTTP server; it is the
// single construction point for everything StartServer needs.
func NewRuntime(ctx context.Context, params Params) (*Runtime, error) {
	logging := params.Logging
	if params.Debug {
		logging.Level = "debug"
	}
	logger := setupLogging(logging)

	registerer := prometheus.DefaultRegisterer

	p, err := pool.New(pool.Config{
		BaseDir:       params.BaseDir,
		Extension:     params.Extension,
		BaseURL:       params.BaseURL,
		ReadOnly:      params.ReadOnly,
		UnloadTime:    params.UnloadTime,
		ExtraContexts: params.ExtraContexts,
		Namespaces:    params.Namespaces,
		NoExtraTarget: params.NoExtraTarget,
		Logger:        logger,
		Registerer:    registerer,
	})
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}

	srv := server.New(server.Config{
		Pool:       p,
		Logger:     logger,
		Registerer: registerer,
		Debug:      params.Debug,
	})

	janitorCtx, cancel := context.WithCancel(ctx)

	return &Runtime{
		Params:        params,
		pool:          p,
		server:        srv,
		log:           logger.WithField("component", "runtime"),
		janitorCtx:    janitorCtx,
		janitorCancel: cancel,
	}, nil
}

// StartServer starts the HTTP listener and janitor and blocks the calling
// goroutine until a shutdown signal arrives or the listener fails.
func (rt *Runtime) StartServer(ctx context.Context) error {
	rt.log.WithField("addr", rt.Params.Addr).Info("initializing server")

	go rt.pool.StartJanitor(rt.janitorCtx)

	httpServer := &http.Server{
		Addr:    rt.Params.Addr,
		Handler: rt.server.Handler(),
	}

	errc := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
			return
		}
		errc <- nil
	}()

	signalc := make(chan os.Signal, 1)
	signal.Notify(signalc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case <-signalc:
	case err := <-errc:
		rt.janitorCancel()
		if err != nil {
			rt.log.WithField("err", err).Error("listener failed")
		}
		return err
	}

	return rt.shutdown(httpServer)
}

func (rt *Runtime) shutdown(httpServer *http.Server) error {
	rt.log.Info("shutting down")
	rt.janitorCancel()

	grace, cancel := context.WithTimeout(context.Background(), time.Duration(rt.Params.GracefulShutdownPeriod)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(grace); err != nil {
		rt.log.WithField("err", err).Error("error during HTTP shutdown")
	}

	if poolErr := rt.pool.Close(); poolErr != nil {
		rt.log.WithField("err", poolErr).Error("error during final flush")
		return poolErr
	}
	return nil
}
