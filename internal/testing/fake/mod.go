// Package fake provides fake implementations for interfaces commonly used in
// the repository. The implementations offer configuration to return errors
// when a unit test needs them and record the calls made to an object.
package fake

import (
	"github.com/meridian-network/meridian/core/chain"
	"github.com/meridian-network/meridian/core/contract"
	"github.com/meridian-network/meridian/core/dispatch"
	"golang.org/x/xerrors"
)

// Call is a tool to keep track of a function calls.
type Call struct {
	calls [][]interface{}
}

// Get returns the nth call ith parameter.
func (c *Call) Get(n, i int) interface{} {
	return c.calls[n][i]
}

// Len returns the number of calls.
func (c *Call) Len() int {
	return len(c.calls)
}

// Add adds a call to the list.
func (c *Call) Add(args ...interface{}) {
	c.calls = append(c.calls, args)
}

// Handler is a fake contract handler recording the calls it receives.
//
// - implements dispatch.Handler
type Handler struct {
	Calls  *Call
	Reject bool
	err    error
}

// NewHandler returns a fake handler accepting everything.
func NewHandler() *Handler {
	return &Handler{Calls: &Call{}}
}

// NewBadHandler returns a fake handler failing every mutation.
func NewBadHandler() *Handler {
	return &Handler{Calls: &Call{}, err: xerrors.New("fake error")}
}

// Reset implements dispatch.Handler.
func (h *Handler) Reset() {
	h.Calls.Add("reset")
}

// Validate implements dispatch.Handler.
func (h *Handler) Validate(c contract.Contract, tx *chain.Transaction) bool {
	h.Calls.Add("validate", c)

	return !h.Reject
}

// Add implements dispatch.Handler.
func (h *Handler) Add(ctx dispatch.Context) error {
	h.Calls.Add("add", ctx)

	return h.err
}

// Delete implements dispatch.Handler.
func (h *Handler) Delete(ctx dispatch.Context) error {
	h.Calls.Add("delete", ctx)

	return h.err
}

// Revert implements dispatch.Handler.
func (h *Handler) Revert(ctx dispatch.Context) error {
	h.Calls.Add("revert", ctx)

	return dispatch.DefaultRevert(h, ctx)
}

// BlockReader is a fake block storage serving blocks by height.
//
// - implements replay.BlockReader
type BlockReader struct {
	Blocks map[int64]*chain.Block
	Fail   map[int64]struct{}
	Reads  int
}

// NewBlockReader returns an empty fake block storage.
func NewBlockReader() *BlockReader {
	return &BlockReader{
		Blocks: make(map[int64]*chain.Block),
		Fail:   make(map[int64]struct{}),
	}
}

// ReadBlock implements replay.BlockReader.
func (r *BlockReader) ReadBlock(index *chain.BlockIndex) (*chain.Block, error) {
	r.Reads++

	if _, failing := r.Fail[index.Height]; failing {
		return nil, xerrors.New("fake error")
	}

	block, found := r.Blocks[index.Height]
	if !found {
		return nil, xerrors.Errorf("block %d not found", index.Height)
	}

	return block, nil
}

// Activator is a fake beacon activator recording the calls it receives.
//
// - implements replay.BeaconActivator
type Activator struct {
	Calls *Call
}

// NewActivator returns a fake activator.
func NewActivator() *Activator {
	return &Activator{Calls: &Call{}}
}

// ActivatePending implements replay.BeaconActivator.
func (a *Activator) ActivatePending(cpids []string, time int64) {
	a.Calls.Add("activate", cpids, time)
}

// Refresher is a fake identity refresher recording the calls it receives.
//
// - implements identity.Refresher
type Refresher struct {
	Dirty     int
	Refreshed int
}

// MarkDirty implements identity.Refresher.
func (r *Refresher) MarkDirty() {
	r.Dirty++
}

// Refresh implements identity.Refresher.
func (r *Refresher) Refresh() {
	r.Refreshed++
}
