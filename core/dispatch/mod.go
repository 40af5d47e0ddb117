// Package dispatch routes contracts to per-type handlers.
//
// A handler owns the derived state of one contract type and is reached only
// through the Handler capability set. The dispatcher holds the single routing
// table of the process and is the one point where apply, validate and revert
// enter the system. It is an explicit value constructed at node startup and
// threaded through the call sites that process contracts.
//
// Documentation Last Review: 31.08.2026
package dispatch

import (
	"github.com/meridian-network/meridian"
	"github.com/meridian-network/meridian/core/appcache"
	"github.com/meridian-network/meridian/core/chain"
	"github.com/meridian-network/meridian/core/contract"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

// Context carries a contract through apply and revert together with its
// owning transaction and block index entry. It owns none of its referents,
// all of which outlive the call.
type Context struct {
	Contract contract.Contract
	Tx       *chain.Transaction
	Block    *chain.BlockIndex
}

// Handler is the capability set a derived-state registry implements to
// process the contracts of its type.
type Handler interface {
	// Reset clears all derived state, preparing for a historical replay.
	Reset()

	// Validate performs contextual, chain-state-dependent validation. It is
	// distinct from the structural WellFormed check of the contract itself.
	Validate(c contract.Contract, tx *chain.Transaction) bool

	// Add applies the effect of adding the contract's entity.
	Add(ctx Context) error

	// Delete applies the effect of removing the contract's entity.
	Delete(ctx Context) error

	// Revert undoes a previously applied contract. Most handlers delegate to
	// DefaultRevert; a handler overrides it when the inverse of an action is
	// not a pure structural mirror.
	Revert(ctx Context) error
}

// DefaultRevert inverts the action declared in the contract: reverting an
// addition deletes, reverting a removal adds, and reverting an unknown
// action is a diagnosed no-op.
func DefaultRevert(h Handler, ctx Context) error {
	switch ctx.Contract.Action {
	case contract.ActionAdd:
		return h.Delete(ctx)
	case contract.ActionRemove:
		return h.Add(ctx)
	}

	meridian.Logger.Warn().
		Str("action", ctx.Contract.Action.String()).
		Msg("unknown contract action ignored on revert")

	return nil
}

// AppCacheHandler routes protocol and scraper contracts into the generic
// section-keyed cache until those types get dedicated registries.
//
// - implements dispatch.Handler
type AppCacheHandler struct {
	cache *appcache.Cache
}

// NewAppCacheHandler creates a handler around the given cache.
func NewAppCacheHandler(cache *appcache.Cache) *AppCacheHandler {
	return &AppCacheHandler{cache: cache}
}

// Reset implements dispatch.Handler.
func (h *AppCacheHandler) Reset() {
	h.cache.Clear(appcache.SectionProtocol)
	h.cache.Clear(appcache.SectionScraper)
}

// Validate implements dispatch.Handler. No contextual validation is needed
// yet.
func (h *AppCacheHandler) Validate(c contract.Contract, tx *chain.Transaction) bool {
	return true
}

// Add implements dispatch.Handler.
func (h *AppCacheHandler) Add(ctx Context) error {
	payload, err := ctx.Contract.SharePayload()
	if err != nil {
		return xerrors.Errorf("couldn't share payload: %v", err)
	}

	h.cache.Put(
		appcache.StringToSection(ctx.Contract.Type.String()),
		payload.LegacyKeyString(),
		payload.LegacyValueString(),
		ctx.Tx.Time)

	return nil
}

// Delete implements dispatch.Handler.
func (h *AppCacheHandler) Delete(ctx Context) error {
	payload, err := ctx.Contract.SharePayload()
	if err != nil {
		return xerrors.Errorf("couldn't share payload: %v", err)
	}

	h.cache.DeleteKey(
		appcache.StringToSection(ctx.Contract.Type.String()),
		payload.LegacyKeyString())

	return nil
}

// Revert implements dispatch.Handler.
func (h *AppCacheHandler) Revert(ctx Context) error {
	return DefaultRevert(h, ctx)
}

// UnknownHandler absorbs the contracts of types mapping to no handler. It
// logs and performs no state change, so unknown contracts never block block
// acceptance.
//
// - implements dispatch.Handler
type UnknownHandler struct {
	logger zerolog.Logger
}

// Reset implements dispatch.Handler.
func (h UnknownHandler) Reset() {}

// Validate implements dispatch.Handler. It always succeeds.
func (h UnknownHandler) Validate(c contract.Contract, tx *chain.Transaction) bool {
	return true
}

// Add implements dispatch.Handler.
func (h UnknownHandler) Add(ctx Context) error {
	h.logger.Warn().
		Str("type", ctx.Contract.Type.String()).
		Msg("add unknown contract type ignored")

	return nil
}

// Delete implements dispatch.Handler.
func (h UnknownHandler) Delete(ctx Context) error {
	h.logger.Warn().
		Str("type", ctx.Contract.Type.String()).
		Msg("delete unknown contract type ignored")

	return nil
}

// Revert implements dispatch.Handler.
func (h UnknownHandler) Revert(ctx Context) error {
	h.logger.Warn().
		Str("type", ctx.Contract.Type.String()).
		Msg("revert unknown contract type ignored")

	return nil
}

// Dispatcher holds the routing table from contract type to handler.
type Dispatcher struct {
	beacons  Handler
	polls    Handler
	projects Handler
	appCache *AppCacheHandler
	unknown  UnknownHandler
	logger   zerolog.Logger
}

// New creates a dispatcher routing to the given registries. Poll and vote
// contracts share the poll registry; protocol and scraper contracts share
// the cache handler.
func New(beacons, polls, projects Handler, cache *appcache.Cache) *Dispatcher {
	logger := meridian.Logger.With().Str("component", "dispatch").Logger()

	return &Dispatcher{
		beacons:  beacons,
		polls:    polls,
		projects: projects,
		appCache: NewAppCacheHandler(cache),
		unknown:  UnknownHandler{logger: logger},
		logger:   logger,
	}
}

// ResetHandlers resets the cached state of every known handler to prepare
// for a historical contract replay. It is idempotent.
func (d *Dispatcher) ResetHandlers() {
	d.beacons.Reset()
	d.polls.Reset()
	d.projects.Reset()
	d.appCache.Reset()
}

// Apply routes the contract to the addition or deletion primitive of its
// handler. An unknown action is logged and otherwise ignored.
func (d *Dispatcher) Apply(ctx Context) error {
	if ctx.Contract.Action == contract.ActionAdd {
		d.log(ctx.Contract, "add contract")

		return d.handler(ctx.Contract.Type).Add(ctx)
	}

	if ctx.Contract.Action == contract.ActionRemove {
		d.log(ctx.Contract, "delete contract")

		return d.handler(ctx.Contract.Type).Delete(ctx)
	}

	d.logger.Warn().
		Str("type", ctx.Contract.Type.String()).
		Msg("unknown contract action ignored")

	return nil
}

// Validate performs the contextual validation of the contract through its
// handler.
func (d *Dispatcher) Validate(c contract.Contract, tx *chain.Transaction) bool {
	return d.handler(c.Type).Validate(c, tx)
}

// Revert routes the contract to the revert primitive of its handler. The
// handler inverts the declared action unless it knows better.
func (d *Dispatcher) Revert(ctx Context) error {
	d.log(ctx.Contract, "revert contract")

	return d.handler(ctx.Contract.Type).Revert(ctx)
}

func (d *Dispatcher) handler(t contract.Type) Handler {
	switch t {
	case contract.TypeBeacon:
		return d.beacons
	case contract.TypePoll:
		return d.polls
	case contract.TypeProject:
		return d.projects
	case contract.TypeProtocol:
		return d.appCache
	case contract.TypeScraper:
		return d.appCache
	case contract.TypeVote:
		return d.polls
	default:
		return d.unknown
	}
}

func (d *Dispatcher) log(c contract.Contract, msg string) {
	d.logger.Info().
		Int("version", c.Version).
		Str("type", c.Type.String()).
		Str("action", c.Action.String()).
		Msg(msg)
}
