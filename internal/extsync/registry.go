package extsync

import (
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/model"
)

// Registry defaults.
const (
	DefaultTTL        = 10 * time.Minute
	DefaultMaxEntries = 256
)

// Registry holds one extension endpoint per owner. Entries expire when no
// heartbeat arrives within the TTL, and the oldest entry is evicted when the
// registry is full.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Endpoint
	ttl     time.Duration
	max     int
	now     func() time.Time
}

// NewRegistry returns an empty registry. Non-positive ttl or max take defaults.
func NewRegistry(ttl time.Duration, maxEntries int, now func() time.Time) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{
		entries: make(map[string]*Endpoint),
		ttl:     ttl,
		max:     maxEntries,
		now:     now,
	}
}

// Register adds or refreshes the endpoint for ep.OwnerID and marks it active.
func (r *Registry) Register(ep Endpoint) (Endpoint, error) {
	if ep.OwnerID == "" {
		return Endpoint{}, apperr.Validation("owner is required", nil)
	}
	u, err := url.Parse(ep.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Endpoint{}, apperr.Validation(fmt.Sprintf("invalid endpoint url %q", ep.URL), err).
			WithDetail("fields", map[string]string{"url": "must be an absolute http(s) URL"})
	}
	if ep.Editor == "" {
		ep.Editor = string(model.EditorVSCode)
	}
	if !model.Editor(ep.Editor).Valid() {
		return Endpoint{}, apperr.Validation(fmt.Sprintf("unsupported editor %q", ep.Editor), nil).
			WithDetail("fields", map[string]string{"editor": "must be vscode or cursor"})
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)
	if _, exists := r.entries[ep.OwnerID]; !exists && len(r.entries) >= r.max {
		r.evictOldestLocked()
	}

	ep.LastSeen = now
	ep.Active = true
	stored := ep
	r.entries[ep.OwnerID] = &stored
	return stored, nil
}

// Get returns the live endpoint for owner.
func (r *Registry) Get(owner string) (Endpoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ep, ok := r.entries[owner]
	if !ok || r.expired(ep, r.now()) {
		return Endpoint{}, false
	}
	return *ep, true
}

// MarkInactive flags owner's endpoint after a failed sync. It stays
// registered until the next heartbeat or expiry.
func (r *Registry) MarkInactive(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ep, ok := r.entries[owner]; ok {
		ep.Active = false
	}
}

// Touch records a successful contact with owner's endpoint.
func (r *Registry) Touch(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ep, ok := r.entries[owner]; ok {
		ep.Active = true
		ep.LastSeen = r.now()
	}
}

// ActiveOwners returns owners with a live, active endpoint, sorted.
func (r *Registry) ActiveOwners() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var owners []string
	for owner, ep := range r.entries {
		if ep.Active && !r.expired(ep, now) {
			owners = append(owners, owner)
		}
	}
	sort.Strings(owners)
	return owners
}

// Sweep drops expired entries and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

// Len returns the number of entries, expired or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) expired(ep *Endpoint, now time.Time) bool {
	return now.Sub(ep.LastSeen) > r.ttl
}

func (r *Registry) sweepLocked(now time.Time) int {
	removed := 0
	for owner, ep := range r.entries {
		if r.expired(ep, now) {
			delete(r.entries, owner)
			removed++
		}
	}
	return removed
}

func (r *Registry) evictOldestLocked() {
	var oldest string
	var oldestAt time.Time
	for owner, ep := range r.entries {
		if oldest == "" || ep.LastSeen.Before(oldestAt) {
			oldest, oldestAt = owner, ep.LastSeen
		}
	}
	delete(r.entries, oldest)
}
