// Package replay rebuilds the derived contract registries by re-applying
// every historical contract of the confirmed chain in order.
//
// The engine drives the same apply and revert path used during block connect
// and disconnect. It runs entirely on the thread holding the chain-state
// lock: there is no internal locking, no suspension point and no
// cancellation. A storage read failure degrades gracefully by skipping the
// block's contracts instead of aborting the whole replay.
//
// Documentation Last Review: 31.08.2026
package replay

import (
	"github.com/meridian-network/meridian"
	"github.com/meridian-network/meridian/core/chain"
	"github.com/meridian-network/meridian/core/contract"
	"github.com/meridian-network/meridian/core/dispatch"
	"github.com/meridian-network/meridian/core/identity"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// Dynamic protocol configuration keys that change which locally-held
// identity is the primary one.
const (
	// RequireTeamWhitelistKey toggles the team whitelist requirement.
	RequireTeamWhitelistKey = "REQUIRE_TEAM_WHITELIST_MEMBERSHIP"

	// TeamWhitelistKey holds the team whitelist membership list.
	TeamWhitelistKey = "TEAM_WHITELIST"
)

// BlockReader loads block bodies from storage.
type BlockReader interface {
	ReadBlock(index *chain.BlockIndex) (*chain.Block, error)
}

// BeaconActivator activates the beacons a superblock verified. Superblock
// activation is a distinct consensus event from ordinary contract
// application.
type BeaconActivator interface {
	ActivatePending(cpids []string, time int64)
}

// Engine replays historical contracts to rebuild derived state.
type Engine struct {
	blocks     BlockReader
	dispatcher *dispatch.Dispatcher
	beacons    BeaconActivator
	identity   identity.Refresher
	params     Params
	metrics    *Metrics
	logger     zerolog.Logger
}

// NewEngine creates a replay engine around its collaborators. A nil metrics
// value creates unregistered counters.
func NewEngine(
	blocks BlockReader,
	dispatcher *dispatch.Dispatcher,
	beacons BeaconActivator,
	refresher identity.Refresher,
	params Params,
	metrics *Metrics,
) *Engine {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Engine{
		blocks:     blocks,
		dispatcher: dispatcher,
		beacons:    beacons,
		identity:   refresher,
		params:     params,
		metrics:    metrics,
		logger:     meridian.Logger.With().Str("component", "replay").Logger(),
	}
}

// Replay resets every handler and re-applies the historical contracts of the
// ancestry of the target, inclusive, in ascending height order. The scan
// starts at the first block no older than the beacon validity window before
// the target, because older contracts are irrelevant to current state.
func (e *Engine) Replay(target *chain.BlockIndex) {
	if target == nil {
		return
	}

	logger := e.logger.With().Str("run", xid.New().String()).Logger()

	start := chain.FindByMinTime(target, target.Time-e.params.BeaconMaxAge)

	logger.Info().Int64("height", start.Height).Msg("replaying contracts")

	if start.Height < e.params.ContractActivationHeight {
		return
	}

	e.dispatcher.ResetHandlers()

	// The index entries are linked consecutively in order from oldest to
	// newest, so the walk never processes a block out of order.
	for index := start; index != nil; index = index.Next {
		e.metrics.BlocksScanned.Inc()

		var block *chain.Block

		if index.IsContract {
			read, err := e.blocks.ReadBlock(index)
			if err != nil {
				// A block unreadable from storage loses its contracts for
				// this replay but does not abort it. See the package notes
				// on the divergence trade-off.
				logger.Warn().Err(err).
					Int64("height", index.Height).
					Msg("skipping contracts of unreadable block")
				e.metrics.BlocksSkipped.Inc()
			} else {
				block = read
				e.ApplyBlock(block, index)
			}
		}

		if index.IsSuperblock && index.Version >= e.params.SuperblockContractVersion {
			if block == nil {
				read, err := e.blocks.ReadBlock(index)
				if err != nil {
					logger.Warn().Err(err).
						Int64("height", index.Height).
						Msg("skipping beacon activation of unreadable block")
					e.metrics.BlocksSkipped.Inc()
				} else {
					block = read
				}
			}

			if block != nil && block.Superblock != nil {
				e.beacons.ActivatePending(
					block.Superblock.VerifiedBeacons,
					block.Time)
			}
		}

		if index == target {
			break
		}
	}

	// Team or whitelist-affecting contracts can invalidate the cached
	// identity resolution mid-scan; recomputing once at the end is enough.
	e.identity.Refresh()
}

// ApplyBlock applies the contracts of every transaction of the block, in
// transaction order, skipping the coinbase and coinstake which by convention
// cannot carry contracts. It returns true when the block carries at least
// one trackable contract.
func (e *Engine) ApplyBlock(block *chain.Block, index *chain.BlockIndex) bool {
	found := false

	for i := 2; i < len(block.Transactions); i++ {
		if e.ApplyContracts(&block.Transactions[i], index) {
			found = true
		}
	}

	return found
}

// ApplyContracts hands every surviving contract of the transaction to the
// dispatcher. A version 1 contract that fails validation is silently
// skipped: invalid contracts are no-ops, never transaction failures.
// Version 2+ contract signatures are checked upon receipt by the
// transaction layer. The returned flag is true when the transaction carries
// a trackable contract; message contracts are applied but never tracked in
// the block index.
func (e *Engine) ApplyContracts(tx *chain.Transaction, index *chain.BlockIndex) bool {
	found := false

	for _, c := range tx.Contracts() {
		if c.Version == 1 && !c.Validate() {
			continue
		}

		// Support dynamic team requirement or whitelist configuration: such
		// protocol entries change which local identity is primary, so the
		// cached resolution is recomputed after the scan.
		if c.Type == contract.TypeProtocol {
			key := c.Body.AssumeLegacy().LegacyKeyString()

			if key == RequireTeamWhitelistKey || key == TeamWhitelistKey {
				e.identity.MarkDirty()
			}
		}

		err := e.dispatcher.Apply(dispatch.Context{Contract: c, Tx: tx, Block: index})
		if err != nil {
			e.logger.Warn().Err(err).
				Str("type", c.Type.String()).
				Msg("contract had no effect")
		}

		e.metrics.ContractsApplied.Inc()

		found = found || c.Type != contract.TypeMessage
	}

	return found
}

// ValidateContracts performs the contextual validation of every contract of
// the transaction and fails on the first rejection. This check is wired into
// transaction acceptance, in addition to each contract's own structural
// validation.
func (e *Engine) ValidateContracts(tx *chain.Transaction) bool {
	for _, c := range tx.Contracts() {
		if !e.dispatcher.Validate(c, tx) {
			return false
		}
	}

	return true
}

// RevertContracts undoes the contracts of the transaction on chain
// disconnect. Any prior state a reorganization must restore is reloaded by
// the replay of the newly-active branch, not reconstructed here.
func (e *Engine) RevertContracts(tx *chain.Transaction, index *chain.BlockIndex) {
	for _, c := range tx.Contracts() {
		// V2 contract signatures are checked upon receipt:
		if c.Version == 1 && !c.VerifySignature() {
			continue
		}

		err := e.dispatcher.Revert(dispatch.Context{Contract: c, Tx: tx, Block: index})
		if err != nil {
			e.logger.Warn().Err(err).
				Str("type", c.Type.String()).
				Msg("revert had no effect")
		}
	}
}
