package blockstore

import (
	"path/filepath"
	"testing"

	"github.com/meridian-network/meridian/core/chain"
	"github.com/stretchr/testify/require"
)

func makeStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "blocks.db"))
	require.NoError(t, err)

	t.Cleanup(func() { store.Close() })

	return store
}

func TestStore_New(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "blocks.db"))
	require.ErrorContains(t, err, "failed to open db")
}

func TestStore_PutGet(t *testing.T) {
	store := makeStore(t)

	block := &chain.Block{
		Time: 1000,
		Transactions: []chain.Transaction{
			{Time: 1000, Messages: []string{"<MT>project</MT><MK>seti</MK>"}},
		},
		Superblock: &chain.Superblock{Version: 11, VerifiedBeacons: []string{"cpid"}},
	}

	require.NoError(t, store.Put(42, block))

	read, err := store.Get(42)
	require.NoError(t, err)
	require.Equal(t, block, read)

	_, err = store.Get(43)
	require.ErrorContains(t, err, "block 43 not found")
}

func TestStore_GetEmpty(t *testing.T) {
	store := makeStore(t)

	_, err := store.Get(1)
	require.ErrorContains(t, err, "empty store")
}

func TestStore_ReadBlock(t *testing.T) {
	store := makeStore(t)

	require.NoError(t, store.Put(7, &chain.Block{Time: 700}))

	block, err := store.ReadBlock(&chain.BlockIndex{Height: 7})
	require.NoError(t, err)
	require.Equal(t, int64(700), block.Time)
}

func TestStore_Heights(t *testing.T) {
	store := makeStore(t)

	heights, err := store.Heights()
	require.NoError(t, err)
	require.Empty(t, heights)

	require.NoError(t, store.Put(3, &chain.Block{}))
	require.NoError(t, store.Put(1, &chain.Block{}))
	require.NoError(t, store.Put(2, &chain.Block{}))

	heights, err = store.Heights()
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, heights)
}
