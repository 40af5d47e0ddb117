// Package identity tracks the locally-held researcher identity derived from
// the whitelist and protocol configuration.
//
// Contracts that toggle the team requirement or change the team whitelist
// can change which local identity is the primary one. Affected call sites
// mark the resolution dirty and the recomputation runs once, deferred, after
// a scan completes.
package identity

import (
	"github.com/meridian-network/meridian"
	"github.com/rs/zerolog"
)

// Refresher is the capability the replay engine needs to invalidate and
// rebuild the cached identity resolution.
type Refresher interface {
	// MarkDirty flags the cached resolution as stale. It is idempotent.
	MarkDirty()

	// Refresh recomputes the resolution from the rebuilt registries.
	Refresh()
}

// Tracker is a refresher delegating the recomputation to a callback.
//
// - implements identity.Refresher
type Tracker struct {
	dirty    bool
	refresh  func()
	refreshs int
	logger   zerolog.Logger
}

// NewTracker creates a tracker around the recomputation callback. A nil
// callback leaves only the bookkeeping.
func NewTracker(refresh func()) *Tracker {
	return &Tracker{
		refresh: refresh,
		logger:  meridian.Logger.With().Str("component", "identity").Logger(),
	}
}

// MarkDirty implements identity.Refresher.
func (t *Tracker) MarkDirty() {
	t.dirty = true
}

// Refresh implements identity.Refresher.
func (t *Tracker) Refresh() {
	t.logger.Debug().Bool("dirty", t.dirty).Msg("refreshing identity resolution")

	if t.refresh != nil {
		t.refresh()
	}

	t.dirty = false
	t.refreshs++
}

// IsDirty returns true when the cached resolution is stale.
func (t *Tracker) IsDirty() bool {
	return t.dirty
}

// Refreshed returns the number of recomputations performed.
func (t *Tracker) Refreshed() int {
	return t.refreshs
}
