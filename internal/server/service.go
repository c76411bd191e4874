// Package server exposes session ingestion and statistics over HTTP and
// runs the background extension sync loop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/theirongolddev/afkmon/internal/extsync"
	"github.com/theirongolddev/afkmon/internal/ingest"
	"github.com/theirongolddev/afkmon/internal/model"
	"github.com/theirongolddev/afkmon/internal/pipeline"
)

// Config controls the server runtime behavior.
type Config struct {
	Addr         string
	DefaultOwner string
	Version      string
	// SyncInterval enables periodic SyncAll when positive.
	SyncInterval time.Duration
	// SweepInterval is how often expired extension registrations are dropped.
	SweepInterval time.Duration
}

// Deps are the collaborators a Service serves requests from.
type Deps struct {
	Stats    *pipeline.Stats
	Ingestor *ingest.Ingestor
	Syncer   *extsync.Syncer
	Metrics  *Metrics
	Log      logr.Logger
	Now      func() time.Time
}

// Service provides the HTTP API and the background loop.
type Service struct {
	cfg      Config
	stats    *pipeline.Stats
	ingestor *ingest.Ingestor
	syncer   *extsync.Syncer
	metrics  *Metrics
	log      logr.Logger
	now      func() time.Time

	mu            sync.RWMutex
	startedAt     time.Time
	lastTickAt    time.Time
	tickCount     int64
	lastSyncAt    time.Time
	lastSyncError string
}

// New returns a Service with defaults filled in for any zero config values.
func New(cfg Config, deps Deps) *Service {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8000"
	}
	if cfg.DefaultOwner == "" {
		cfg.DefaultOwner = model.DefaultOwner
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}

	return &Service{
		cfg:       cfg,
		stats:     deps.Stats,
		ingestor:  deps.Ingestor,
		syncer:    deps.Syncer,
		metrics:   deps.Metrics,
		log:       deps.Log.WithName("server"),
		now:       deps.Now,
		startedAt: deps.Now(),
	}
}

// Run serves HTTP and drives the sweep/sync loop until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("listening", "addr", s.cfg.Addr, "version", s.cfg.Version)

	sweep := time.NewTicker(s.cfg.SweepInterval)
	defer sweep.Stop()

	var syncC <-chan time.Time
	if s.cfg.SyncInterval > 0 {
		t := time.NewTicker(s.cfg.SyncInterval)
		defer t.Stop()
		syncC = t.C
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-sweep.C:
			s.sweepOnce()
		case <-syncC:
			s.syncOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("afkmon http server: %w", err)
		}
	}
}

func (s *Service) tick() {
	s.mu.Lock()
	s.lastTickAt = s.now()
	s.tickCount++
	s.mu.Unlock()
}

func (s *Service) sweepOnce() {
	s.tick()
	if s.syncer == nil {
		return
	}
	if n := s.syncer.Registry().Sweep(); n > 0 {
		s.log.V(1).Info("expired extension registrations", "count", n)
	}
}

// syncOnce runs SyncAll and remembers the first failure for /api/status.
func (s *Service) syncOnce(ctx context.Context) {
	s.tick()
	if s.syncer == nil {
		return
	}
	reports := s.syncer.SyncAll(ctx)

	var lastErr string
	for _, r := range reports {
		if r.Err != nil {
			lastErr = fmt.Sprintf("%s: %v", r.OwnerID, r.Err)
			break
		}
	}

	s.mu.Lock()
	s.lastSyncAt = s.now()
	s.lastSyncError = lastErr
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	extensions := 0
	if s.syncer != nil {
		extensions = s.syncer.Registry().Len()
	}
	return Status{
		StartedAt:     s.startedAt,
		LastTickAt:    s.lastTickAt,
		TickCount:     s.tickCount,
		SyncInterval:  int(s.cfg.SyncInterval.Seconds()),
		LastSyncAt:    s.lastSyncAt,
		LastSyncError: s.lastSyncError,
		Extensions:    extensions,
		Version:       s.cfg.Version,
	}
}
