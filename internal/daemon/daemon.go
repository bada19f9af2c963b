package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"metcm_relay/internal/config"
	"metcm_relay/internal/database"
	"metcm_relay/internal/httpapi"
	"metcm_relay/internal/observability"
	"metcm_relay/internal/query"
	"metcm_relay/internal/scheduler"
	"metcm_relay/internal/store"
	"metcm_relay/internal/tasks"
	"metcm_relay/internal/transport"
	"metcm_relay/internal/zones"
)

// WorkerExit reports a listener worker that stopped serving
type WorkerExit struct {
	Port int
	Err  error
}

// Daemon owns the receive side: one listener worker per port, the store they feed,
// the archive, housekeeping tasks and the HTTP query surface
type Daemon struct {
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler *scheduler.Scheduler
	database  *database.DB
	archiver  *tasks.BulletinArchiver
	store     *store.BulletinStore
	query     *query.Service
	server    *httpapi.Server
	ports     []int
	listeners []*transport.Listener
	exits     chan WorkerExit
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// New wires the daemon from configuration. Nothing is bound until Start.
func New(cfg *config.Config, metrics *observability.Metrics) (*Daemon, error) {
	if len(cfg.ListenPorts) == 0 {
		return nil, fmt.Errorf("at least one listen port is required")
	}

	bands := zones.DefaultBands()
	if cfg.ZoneTable == config.ZoneTableLegacy {
		bands = zones.LegacyBands()
	}

	index, err := zones.NewIndex(bands, cfg.ZoneSlotOffset)
	if err != nil {
		return nil, fmt.Errorf("failed to build zone index: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{
		ctx:       ctx,
		cancel:    cancel,
		scheduler: scheduler.New(ctx),
		store:     store.New(cfg.HistoryLimit),
		ports:     cfg.ListenPorts,
		exits:     make(chan WorkerExit, len(cfg.ListenPorts)),
	}
	d.query = query.NewService(index, d.store, metrics)

	sinks := []transport.Sink{d.store}

	if cfg.Archive.Enabled {
		db, err := database.New(cfg.DBPath)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		d.database = db

		if err := d.restoreLatest(db.BulletinRepository()); err != nil {
			db.Close()
			cancel()
			return nil, err
		}

		d.archiver = tasks.NewBulletinArchiverWithConfig(db.BulletinRepository(), metrics, cfg.Archive.BatchSize, cfg.Archive.BatchTimeout)
		sinks = append(sinks, d.archiver)
	}

	for range cfg.ListenPorts {
		d.listeners = append(d.listeners, transport.NewListener(sinks,
			transport.WithPartial(cfg.AcceptPartial),
			transport.WithRateLimit(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
			transport.WithMetrics(metrics),
		))
	}

	d.scheduler.AddTask(tasks.NewStalenessTask(d.store, metrics, cfg.Staleness.CheckInterval, cfg.Staleness.MaxAge))

	if cfg.HTTPAddr != "" {
		d.server = httpapi.NewServer(cfg.HTTPAddr, d.store, d.query)
	}

	return d, nil
}

// Start binds every UDP port and the HTTP address, then launches the workers.
// A UDP port that cannot be bound fails Start with a *transport.BindError, a taken
// HTTP address with the bind error; either way nothing is left running.
func (d *Daemon) Start() error {
	slog.Info("Starting daemon", "ports", d.ports)

	for i, l := range d.listeners {
		if err := l.Bind(d.ports[i]); err != nil {
			d.closeListeners()
			return err
		}
	}

	if d.server != nil {
		if err := d.server.Bind(); err != nil {
			d.closeListeners()
			return err
		}
	}

	d.scheduler.Start()

	if d.archiver != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			_ = d.archiver.Start(d.ctx)
		}()
	}

	for i, l := range d.listeners {
		d.wg.Add(1)
		go d.runListener(d.ports[i], l)
	}

	if d.server != nil {
		go func() {
			if err := d.server.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("HTTP server error", "error", err)
			}
		}()
	}

	slog.Info("Daemon started successfully")
	return nil
}

// restoreLatest seeds the store with the newest archived bulletin so queries are
// answered right after a restart
func (d *Daemon) restoreLatest(repo database.BulletinRepository) error {
	count, err := repo.Count()
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	b, ok, err := repo.Latest()
	if err != nil {
		return fmt.Errorf("failed to restore latest bulletin: %w", err)
	}
	if !ok {
		slog.Info("Archive is empty, waiting for the first bulletin")
		return nil
	}

	d.store.Put(b)
	slog.Info("Restored latest bulletin from archive",
		"archived", count,
		"station_id", b.Header.StationID,
		"received_at", b.ReceivedAt,
	)
	return nil
}

func (d *Daemon) closeListeners() {
	for _, l := range d.listeners {
		if err := l.Close(); err != nil {
			slog.Error("Error closing listener", "error", err)
		}
	}
}

// runListener serves one port and reports when it stops
func (d *Daemon) runListener(port int, l *transport.Listener) {
	defer d.wg.Done()

	err := l.Serve(d.ctx)
	if d.ctx.Err() != nil && errors.Is(err, transport.ErrListenerClosed) {
		slog.Info("Listener worker stopped", "port", port)
	} else {
		slog.Error("Listener worker exited", "port", port, "error", err)
	}

	select {
	case d.exits <- WorkerExit{Port: port, Err: err}:
	default:
	}
}

// Errors delivers one WorkerExit per listener worker that stops
func (d *Daemon) Errors() <-chan WorkerExit {
	return d.exits
}

// HTTPAddr returns the bound HTTP address, or nil when the server is disabled or not started
func (d *Daemon) HTTPAddr() net.Addr {
	if d.server == nil {
		return nil
	}
	return d.server.Addr()
}

// Addrs returns the bound address of every listener, in port order
func (d *Daemon) Addrs() []net.Addr {
	out := make([]net.Addr, 0, len(d.listeners))
	for _, l := range d.listeners {
		out = append(out, l.Addr())
	}
	return out
}

func (d *Daemon) Store() *store.BulletinStore {
	return d.store
}

func (d *Daemon) Query() *query.Service {
	return d.query
}

// Stop gracefully stops the daemon
func (d *Daemon) Stop() error {
	d.stopOnce.Do(func() {
		slog.Info("Stopping daemon")
		d.cancel()

		d.closeListeners()

		if d.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := d.server.Shutdown(ctx); err != nil {
				slog.Error("Error shutting down HTTP server", "error", err)
			}
			cancel()
		}

		d.wg.Wait()
		d.scheduler.Stop()

		if d.database != nil {
			if err := d.database.Close(); err != nil {
				slog.Error("Error closing database", "error", err)
			}
		}

		slog.Info("Daemon stopped")
	})
	return nil
}
