// Package chain defines the shapes of the confirmed chain this module
// consumes: the in-memory block index, the block and transaction bodies the
// replay engine reads back from storage, and the extraction of contracts
// from a transaction.
//
// Block production, transaction decoding and proof-of-work live upstream;
// only what the contract core reads is modeled here.
package chain

import (
	"github.com/meridian-network/meridian"
	"github.com/meridian-network/meridian/core/contract"
	"golang.org/x/xerrors"
)

// BlockIndex is one entry of the in-memory index of the confirmed chain.
// Entries of a branch are linked consecutively from oldest to newest.
type BlockIndex struct {
	Height  int64
	Time    int64
	Version int

	// IsContract flags a block containing at least one trackable contract.
	// IsSuperblock flags a block carrying a superblock record. Both flags
	// are written by the block-acceptance collaborators and only read here.
	IsContract   bool
	IsSuperblock bool

	Prev *BlockIndex
	Next *BlockIndex
}

// Index is the chain index of the active branch.
type Index struct {
	genesis *BlockIndex
	tip     *BlockIndex
}

// NewIndex creates an empty chain index.
func NewIndex() *Index {
	return &Index{}
}

// Append links the entry after the current tip. The entry's height must
// follow the tip's height.
func (idx *Index) Append(entry *BlockIndex) error {
	if idx.tip == nil {
		idx.genesis = entry
		idx.tip = entry

		return nil
	}

	if entry.Height != idx.tip.Height+1 {
		return xerrors.Errorf("height %d does not follow tip %d",
			entry.Height, idx.tip.Height)
	}

	entry.Prev = idx.tip
	idx.tip.Next = entry
	idx.tip = entry

	return nil
}

// Genesis returns the oldest entry of the index.
func (idx *Index) Genesis() *BlockIndex {
	return idx.genesis
}

// Tip returns the newest entry of the index.
func (idx *Index) Tip() *BlockIndex {
	return idx.tip
}

// FindByMinTime returns the earliest ancestor of the entry no older than the
// given time, or the oldest ancestor when every one is newer.
func FindByMinTime(from *BlockIndex, time int64) *BlockIndex {
	entry := from

	for entry != nil && entry.Prev != nil && entry.Prev.Time >= time {
		entry = entry.Prev
	}

	return entry
}

// Superblock is the portion of a superblock record the contract core reads:
// the participant identifiers whose pending beacons the superblock verified.
type Superblock struct {
	Version         int      `json:"version"`
	VerifiedBeacons []string `json:"verified_beacons"`
}

// Transaction is a confirmed transaction as read back from storage. Legacy
// contracts travel as tag-delimited text in the message fields; binary
// contracts travel as opaque blobs.
type Transaction struct {
	Time          int64    `json:"time"`
	Messages      []string `json:"messages,omitempty"`
	ContractBlobs [][]byte `json:"contract_blobs,omitempty"`
}

// Contracts extracts the contracts embedded in the transaction. Messages
// without a contract marker contribute nothing. A binary blob that does not
// decode is dropped with a diagnostic, consistent with the rule that invalid
// contracts are no-ops.
func (tx *Transaction) Contracts() []contract.Contract {
	contracts := make([]contract.Contract, 0, len(tx.Messages)+len(tx.ContractBlobs))

	for _, message := range tx.Messages {
		if !contract.Detect(message) {
			continue
		}

		contracts = append(contracts, contract.Parse(message))
	}

	for _, blob := range tx.ContractBlobs {
		parsed, err := contract.ParseBinary(blob)
		if err != nil {
			meridian.Logger.Warn().Err(err).Msg("dropping undecodable contract blob")
			continue
		}

		contracts = append(contracts, parsed)
	}

	return contracts
}

// Block is a block body as read back from storage.
type Block struct {
	Time         int64         `json:"time"`
	PrevHash     []byte        `json:"prev_hash,omitempty"`
	Transactions []Transaction `json:"transactions"`
	Superblock   *Superblock   `json:"superblock,omitempty"`
}
