// Package agent wires the broker's components into one running process:
// a setup-list / shutdown-list lifecycle over the TCP listener,
// LogStorage, and OffsetStore.
package agent

import (
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nmatsuda/gobroker/internal/broker"
	"github.com/nmatsuda/gobroker/internal/log"
	"github.com/nmatsuda/gobroker/internal/metrics"
	"github.com/nmatsuda/gobroker/internal/offsets"
)

// Config carries everything the agent needs to construct its components.
type Config struct {
	DataDir           string
	ListenAddr        string
	MetricsListenAddr string
	LogConfig         log.Config
}

// Agent runs one broker process: a LogStorage, an OffsetStore, a router
// wired to both, and the TCP listener (plus an optional metrics server)
// serving them. Every connection gets its own goroutine, supervised by
// an errgroup so Shutdown can wait for all of them to drain.
type Agent struct {
	Config

	nodeID  string
	logger  zerolog.Logger
	storage *log.LogStorage
	offsets *offsets.Store
	router  *broker.Router
	metrics *metrics.Recorder

	listener      net.Listener
	metricsServer *http.Server

	group *errgroup.Group

	shutdown     bool
	shutdowns    chan struct{}
	shutdownLock sync.Mutex
}

// New builds and starts an Agent: every setup step runs in order. If one
// fails, New returns its error and no Agent; the steps that already ran
// are not rolled back.
func New(cfg Config) (*Agent, error) {
	a := &Agent{
		Config:    cfg,
		nodeID:    uuid.NewString(),
		shutdowns: make(chan struct{}),
	}
	a.logger = zerolog.New(zerolog.NewConsoleWriter()).With().
		Timestamp().
		Str("node_id", a.nodeID).
		Logger()

	setup := []func() error{
		a.setupStorage,
		a.setupMetrics,
		a.setupRouter,
		a.setupListener,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupStorage() error {
	var err error
	if a.storage, err = log.NewLogStorage(a.DataDir, a.LogConfig); err != nil {
		return err
	}
	a.offsets, err = offsets.NewStore(a.DataDir)
	return err
}

func (a *Agent) setupMetrics() error {
	if a.MetricsListenAddr == "" {
		return nil
	}
	var handler http.Handler
	a.metrics, handler = metrics.NewRecorder()
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	a.metricsServer = &http.Server{Addr: a.MetricsListenAddr, Handler: mux}

	ln, err := net.Listen("tcp", a.MetricsListenAddr)
	if err != nil {
		return err
	}
	go func() {
		if err := a.metricsServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			a.logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	return nil
}

func (a *Agent) setupRouter() error {
	handlers := broker.NewHandlers(a.storage, a.offsets, a.metrics)
	a.router = broker.NewRouter(handlers)
	return nil
}

func (a *Agent) setupListener() error {
	ln, err := net.Listen("tcp", a.ListenAddr)
	if err != nil {
		return err
	}
	a.listener = ln

	group := &errgroup.Group{}
	a.group = group
	group.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-a.shutdowns:
					return nil
				default:
					return err
				}
			}
			group.Go(func() error {
				broker.HandleConnection(conn, a.router, a.metrics, a.logger)
				return nil
			})
		}
	})
	a.logger.Info().Str("addr", a.ListenAddr).Msg("broker listening")
	return nil
}

// Shutdown stops accepting new connections, closes the listener, waits
// for in-flight connection goroutines to drain, and closes the storage
// layer. Idempotent.
func (a *Agent) Shutdown() error {
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()

	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		func() error {
			if a.listener == nil {
				return nil
			}
			return a.listener.Close()
		},
		func() error {
			if a.group == nil {
				return nil
			}
			return a.group.Wait()
		},
		func() error {
			if a.metricsServer == nil {
				return nil
			}
			return a.metricsServer.Close()
		},
		a.storage.Close,
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
