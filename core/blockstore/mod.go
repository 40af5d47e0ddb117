// Package blockstore implements the on-disk storage of block bodies the
// replay engine reads, using bbolt as the engine
// (https://github.com/etcd-io/bbolt).
//
// Blocks are keyed by big-endian height so a cursor walks them in chain
// order.
package blockstore

import (
	"encoding/binary"
	"encoding/json"

	"github.com/meridian-network/meridian/core/chain"
	"go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

var bucketBlocks = []byte("blocks")

// Store is a bbolt-backed store of block bodies.
//
// - implements replay.BlockReader
type Store struct {
	db *bbolt.DB
}

// New opens the database at the given path.
func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0666, &bbolt.Options{})
	if err != nil {
		return nil, xerrors.Errorf("failed to open db: %v", err)
	}

	return &Store{db: db}, nil
}

// Put writes the block body for the height.
func (s *Store) Put(height int64, block *chain.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return xerrors.Errorf("couldn't encode block: %v", err)
	}

	return s.db.Update(func(txn *bbolt.Tx) error {
		bucket, err := txn.CreateBucketIfNotExists(bucketBlocks)
		if err != nil {
			return xerrors.Errorf("failed to create bucket: %v", err)
		}

		return bucket.Put(itob(height), data)
	})
}

// Get reads the block body for the height. A missing block is an error.
func (s *Store) Get(height int64) (*chain.Block, error) {
	block := &chain.Block{}

	err := s.db.View(func(txn *bbolt.Tx) error {
		bucket := txn.Bucket(bucketBlocks)
		if bucket == nil {
			return xerrors.New("empty store")
		}

		data := bucket.Get(itob(height))
		if data == nil {
			return xerrors.Errorf("block %d not found", height)
		}

		return json.Unmarshal(data, block)
	})
	if err != nil {
		return nil, xerrors.Errorf("couldn't read block: %v", err)
	}

	return block, nil
}

// ReadBlock implements replay.BlockReader.
func (s *Store) ReadBlock(index *chain.BlockIndex) (*chain.Block, error) {
	return s.Get(index.Height)
}

// Heights returns every stored height in ascending order.
func (s *Store) Heights() ([]int64, error) {
	heights := []int64{}

	err := s.db.View(func(txn *bbolt.Tx) error {
		bucket := txn.Bucket(bucketBlocks)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			heights = append(heights, int64(binary.BigEndian.Uint64(k)))

			return nil
		})
	})
	if err != nil {
		return nil, xerrors.Errorf("couldn't scan store: %v", err)
	}

	return heights, nil
}

// Close closes the database. Any read or write will fail afterwards.
func (s *Store) Close() error {
	return s.db.Close()
}

func itob(height int64) []byte {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, uint64(height))

	return buffer
}
