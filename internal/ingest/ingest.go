// Package ingest validates incoming session payloads and upserts them.
package ingest

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/model"
)

// Store is the write side of the session store.
type Store interface {
	Upsert(ctx context.Context, s model.Session) (model.Session, error)
}

// Result reports a processed session.
type Result struct {
	SessionID string    `json:"sessionId"`
	Processed bool      `json:"processed"`
	Timestamp time.Time `json:"timestamp"`
}

// Outcome labels passed to an Observer.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Observer is told the outcome of every Ingest call.
type Observer func(outcome string)

// Ingestor validates payloads and writes them through Store.
type Ingestor struct {
	store   Store
	log     logr.Logger
	now     func() time.Time
	observe Observer
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets the logger.
func WithLogger(l logr.Logger) Option {
	return func(i *Ingestor) { i.log = l }
}

// WithClock overrides the clock used for Result.Timestamp.
func WithClock(now func() time.Time) Option {
	return func(i *Ingestor) {
		if now != nil {
			i.now = now
		}
	}
}

// WithObserver registers a callback for ingestion outcomes.
func WithObserver(o Observer) Option {
	return func(i *Ingestor) { i.observe = o }
}

// New returns an Ingestor writing to store.
func New(store Store, opts ...Option) *Ingestor {
	i := &Ingestor{
		store:   store,
		log:     logr.Discard(),
		now:     time.Now,
		observe: func(string) {},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest validates p and upserts it for owner. Replaying the same payload
// converges to the same stored row. Storage errors are returned as is; the
// caller decides whether to retry.
func (i *Ingestor) Ingest(ctx context.Context, owner string, p Payload) (Result, error) {
	sess, err := p.toSession(owner)
	if err != nil {
		i.observe(OutcomeRejected)
		i.log.V(1).Info("rejected session", "owner", owner, "session", p.Session.ID, "error", err.Error())
		return Result{}, err
	}

	if _, err := i.store.Upsert(ctx, sess); err != nil {
		i.observe(OutcomeFailed)
		i.log.Error(err, "upserting session", "owner", owner, "session", sess.ID)
		if apperr.KindOf(err) == apperr.KindInternal {
			err = apperr.Storage("upserting session "+sess.ID, err)
		}
		return Result{}, err
	}

	i.observe(OutcomeOK)
	i.log.V(1).Info("ingested session", "owner", owner, "session", sess.ID, "project", sess.ProjectName, "language", sess.Language)
	return Result{SessionID: sess.ID, Processed: true, Timestamp: i.now().UTC()}, nil
}
