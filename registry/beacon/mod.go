// Package beacon implements the registry of participant beacons.
//
// A beacon binds a participant identifier to the public key signing its
// research claims. Version 2+ beacon additions wait in a pending set until a
// superblock verifies them; the replay engine activates them with the
// superblock's timestamp. The registry overrides the default revert because
// undoing an addition must restore the key the addition replaced, not merely
// forget the new one.
package beacon

import (
	"github.com/meridian-network/meridian"
	"github.com/meridian-network/meridian/core/chain"
	"github.com/meridian-network/meridian/core/contract"
	"github.com/meridian-network/meridian/core/dispatch"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// MaxAge is the number of seconds a beacon stays valid after its timestamp.
// Contracts older than this window are irrelevant to current state, which
// also bounds how far back a replay must scan.
const MaxAge int64 = 60 * 60 * 24 * 30 * 6

// Status describes the lifecycle stage of a beacon.
type Status uint8

// Beacon lifecycle stages.
const (
	// StatusActive marks a beacon usable for claim verification.
	StatusActive Status = iota

	// StatusPending marks a beacon awaiting superblock verification.
	StatusPending
)

// Beacon is one registered beacon.
type Beacon struct {
	Cpid      string
	PublicKey contract.PublicKey
	Timestamp int64
	Status    Status
}

// Expired returns true when the beacon is older than the validity window at
// the given time.
func (b Beacon) Expired(now int64) bool {
	return now-b.Timestamp > MaxAge
}

// Registry holds the derived beacon state rebuilt from historical contracts.
//
// - implements dispatch.Handler
type Registry struct {
	active   map[string]Beacon
	pending  map[string]Beacon
	replaced map[string][]Beacon
	logger   zerolog.Logger
}

// NewRegistry creates an empty beacon registry.
func NewRegistry() *Registry {
	reg := &Registry{
		logger: meridian.Logger.With().Str("registry", "beacon").Logger(),
	}
	reg.Reset()

	return reg
}

// Reset implements dispatch.Handler. It clears all derived state.
func (r *Registry) Reset() {
	r.active = make(map[string]Beacon)
	r.pending = make(map[string]Beacon)
	r.replaced = make(map[string][]Beacon)
}

// Validate implements dispatch.Handler. A removal must name a known beacon.
func (r *Registry) Validate(c contract.Contract, tx *chain.Transaction) bool {
	payload, err := c.SharePayload()
	if err != nil {
		return false
	}

	cpid := payload.LegacyKeyString()

	if c.Action == contract.ActionRemove {
		_, activeFound := r.active[cpid]
		_, pendingFound := r.pending[cpid]

		return activeFound || pendingFound
	}

	return true
}

// Add implements dispatch.Handler. Version 1 beacons activate immediately;
// version 2+ beacons wait for superblock verification.
func (r *Registry) Add(ctx dispatch.Context) error {
	payload, err := sharedPayload(ctx.Contract)
	if err != nil {
		return err
	}

	beacon := Beacon{
		Cpid:      payload.Cpid,
		PublicKey: payload.PublicKey,
		Timestamp: ctx.Tx.Time,
		Status:    StatusActive,
	}

	if ctx.Contract.Version >= 2 {
		beacon.Status = StatusPending
		r.pending[beacon.Cpid] = beacon

		return nil
	}

	if prior, found := r.active[beacon.Cpid]; found {
		r.replaced[beacon.Cpid] = append(r.replaced[beacon.Cpid], prior)
	}

	r.active[beacon.Cpid] = beacon

	return nil
}

// Delete implements dispatch.Handler.
func (r *Registry) Delete(ctx dispatch.Context) error {
	payload, err := sharedPayload(ctx.Contract)
	if err != nil {
		return err
	}

	delete(r.active, payload.Cpid)
	delete(r.pending, payload.Cpid)

	return nil
}

// Revert implements dispatch.Handler. Reverting an addition restores the
// beacon it replaced when one was recorded; reverting a removal falls back
// to the default inversion.
func (r *Registry) Revert(ctx dispatch.Context) error {
	if ctx.Contract.Action != contract.ActionAdd {
		return dispatch.DefaultRevert(r, ctx)
	}

	payload, err := sharedPayload(ctx.Contract)
	if err != nil {
		return err
	}

	delete(r.active, payload.Cpid)
	delete(r.pending, payload.Cpid)

	stack := r.replaced[payload.Cpid]
	if len(stack) > 0 {
		prior := stack[len(stack)-1]
		r.replaced[payload.Cpid] = stack[:len(stack)-1]
		r.active[payload.Cpid] = prior
	}

	return nil
}

// ActivatePending moves the beacons of the verified participants to the
// active set, stamped with the superblock time. Identifiers without a
// pending beacon are skipped with a diagnostic.
func (r *Registry) ActivatePending(cpids []string, time int64) {
	for _, cpid := range cpids {
		beacon, found := r.pending[cpid]
		if !found {
			r.logger.Warn().Str("cpid", cpid).Msg("no pending beacon to activate")
			continue
		}

		delete(r.pending, cpid)

		beacon.Status = StatusActive
		beacon.Timestamp = time

		if prior, exists := r.active[cpid]; exists {
			r.replaced[cpid] = append(r.replaced[cpid], prior)
		}

		r.active[cpid] = beacon
	}
}

// Try returns the active beacon of the participant.
func (r *Registry) Try(cpid string) (Beacon, bool) {
	beacon, found := r.active[cpid]

	return beacon, found
}

// TryPending returns the pending beacon of the participant.
func (r *Registry) TryPending(cpid string) (Beacon, bool) {
	beacon, found := r.pending[cpid]

	return beacon, found
}

// Count returns the number of active beacons.
func (r *Registry) Count() int {
	return len(r.active)
}

func sharedPayload(c contract.Contract) (*contract.BeaconPayload, error) {
	payload, err := c.SharePayload()
	if err != nil {
		return nil, xerrors.Errorf("couldn't share payload: %v", err)
	}

	beacon, ok := payload.(*contract.BeaconPayload)
	if !ok {
		return nil, xerrors.Errorf("unexpected payload type '%T'", payload)
	}

	return beacon, nil
}
