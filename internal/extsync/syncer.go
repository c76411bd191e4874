package extsync

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/ingest"
)

// Sync defaults.
const (
	DefaultExportLimit = 100
	DefaultMaxPages    = 20
)

// Sync outcome labels passed to an observer.
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// SessionIngestor accepts one record at a time, as direct API ingestion does.
type SessionIngestor interface {
	Ingest(ctx context.Context, owner string, p ingest.Payload) (ingest.Result, error)
}

// SyncStore tracks how far each owner has been synced.
type SyncStore interface {
	LastSyncTime(ctx context.Context, owner string) (time.Time, bool, error)
	RecordSync(ctx context.Context, owner string, at time.Time) error
}

// SyncerConfig bounds a sync run.
type SyncerConfig struct {
	ExportLimit int
	MaxPages    int
}

// Syncer pulls new sessions from an owner's registered extension.
type Syncer struct {
	client   *Client
	registry *Registry
	ingestor SessionIngestor
	store    SyncStore
	cfg      SyncerConfig
	log      logr.Logger
	observe  func(outcome string)
}

// NewSyncer wires a Syncer. observe may be nil.
func NewSyncer(client *Client, registry *Registry, ing SessionIngestor, store SyncStore,
	cfg SyncerConfig, log logr.Logger, observe func(outcome string)) *Syncer {
	if cfg.ExportLimit <= 0 {
		cfg.ExportLimit = DefaultExportLimit
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if observe == nil {
		observe = func(string) {}
	}
	return &Syncer{
		client:   client,
		registry: registry,
		ingestor: ing,
		store:    store,
		cfg:      cfg,
		log:      log,
		observe:  observe,
	}
}

// Registry returns the endpoint registry the syncer reads.
func (s *Syncer) Registry() *Registry {
	return s.registry
}

// Sync fetches sessions newer than the owner's last sync and ingests them.
// Per-record failures are collected in Report.Err and do not abort the run.
// An unreachable extension is marked inactive and reported as an
// apperr.Connection.
func (s *Syncer) Sync(ctx context.Context, owner string) (Report, error) {
	report := Report{OwnerID: owner}

	ep, ok := s.registry.Get(owner)
	if !ok {
		s.observe(OutcomeFailed)
		return report, apperr.NotFound(fmt.Sprintf("no extension registered for owner %q", owner))
	}

	var since *time.Time
	last, ok, err := s.store.LastSyncTime(ctx, owner)
	if err != nil {
		s.observe(OutcomeFailed)
		return report, err
	}
	if ok {
		since = &last
	}

	var merr *multierror.Error
	var newest time.Time
	storageFailed := false
	sysInfo := ingest.SystemInfo{Editor: ep.Editor, Platform: ep.Platform}

	for page := 0; page < s.cfg.MaxPages; page++ {
		resp, err := s.client.Export(ctx, ep, ExportRequest{Since: since, Limit: s.cfg.ExportLimit})
		if err != nil {
			s.registry.MarkInactive(owner)
			s.observe(OutcomeFailed)
			s.log.Error(err, "sync failed", "owner", owner, "endpoint", ep.URL)
			return report, err
		}
		report.Pages++
		report.Fetched += len(resp.Sessions)

		for _, rec := range resp.Sessions {
			if _, err := s.ingestor.Ingest(ctx, owner, ingest.Payload{Session: rec, SystemInfo: sysInfo}); err != nil {
				report.Failed++
				if !apperr.Is(err, apperr.KindValidation) {
					storageFailed = true
				}
				merr = multierror.Append(merr, fmt.Errorf("session %s: %w", rec.ID, err))
				continue
			}
			report.Synced++
			if t, err := ingest.ParseTimestamp(rec.SessionStartTime); err == nil && t.After(newest) {
				newest = t
			}
		}

		if t, err := ingest.ParseTimestamp(resp.LastSyncTime); err == nil && t.After(newest) {
			newest = t
		}
		if !resp.HasMore || len(resp.Sessions) == 0 {
			break
		}
		if !newest.IsZero() {
			cursor := newest
			since = &cursor
		}
	}

	s.registry.Touch(owner)
	report.Err = merr.ErrorOrNil()

	if !newest.IsZero() && !storageFailed {
		if err := s.store.RecordSync(ctx, owner, newest); err != nil {
			s.observe(OutcomeFailed)
			return report, err
		}
		report.LastSyncTime = newest
	}

	if report.Err != nil {
		s.observe(OutcomePartial)
		s.log.Info("sync finished with errors", "owner", owner, "synced", report.Synced, "failed", report.Failed)
	} else {
		s.observe(OutcomeOK)
		s.log.V(1).Info("sync finished", "owner", owner, "synced", report.Synced, "pages", report.Pages)
	}
	return report, nil
}

// SyncAll syncs every owner with an active endpoint. Failures are logged
// and reflected in each Report.
func (s *Syncer) SyncAll(ctx context.Context) []Report {
	owners := s.registry.ActiveOwners()
	reports := make([]Report, 0, len(owners))
	for _, owner := range owners {
		if ctx.Err() != nil {
			break
		}
		r, err := s.Sync(ctx, owner)
		if err != nil && r.Err == nil {
			r.Err = err
		}
		reports = append(reports, r)
	}
	return reports
}
