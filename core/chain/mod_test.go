package chain

import (
	"testing"

	"github.com/meridian-network/meridian/core/contract"
	"github.com/stretchr/testify/require"
)

func makeIndex(t *testing.T, times ...int64) *Index {
	t.Helper()

	idx := NewIndex()
	for i, time := range times {
		err := idx.Append(&BlockIndex{Height: int64(i), Time: time})
		require.NoError(t, err)
	}

	return idx
}

func TestIndex_Append(t *testing.T) {
	idx := makeIndex(t, 10, 20, 30)

	require.Equal(t, int64(0), idx.Genesis().Height)
	require.Equal(t, int64(2), idx.Tip().Height)
	require.Equal(t, idx.Genesis(), idx.Tip().Prev.Prev)
	require.Equal(t, idx.Tip(), idx.Genesis().Next.Next)

	err := idx.Append(&BlockIndex{Height: 5})
	require.EqualError(t, err, "height 5 does not follow tip 2")
}

func TestFindByMinTime(t *testing.T) {
	idx := makeIndex(t, 10, 20, 30, 40)

	// Walks back to the earliest entry at or after the time.
	entry := FindByMinTime(idx.Tip(), 20)
	require.Equal(t, int64(1), entry.Height)

	// Every ancestor is newer: stops at the oldest one.
	entry = FindByMinTime(idx.Tip(), 5)
	require.Equal(t, int64(0), entry.Height)

	// Time past the starting entry: stays put.
	entry = FindByMinTime(idx.Tip(), 45)
	require.Equal(t, int64(3), entry.Height)

	require.Nil(t, FindByMinTime(nil, 0))
}

func TestTransaction_Contracts(t *testing.T) {
	beacon := contract.New(contract.ActionAdd, &contract.BeaconPayload{
		Cpid:      "8edc235ddcecf9c416a432a4b14bf0a8",
		PublicKey: contract.MessagePublicKey(),
	})
	blob, err := beacon.Serialize()
	require.NoError(t, err)

	tx := Transaction{
		Time: 100,
		Messages: []string{
			"plain text without a marker",
			"<MT>superblock</MT><MK>quorum</MK>",
			"<MT>project</MT><MK>name</MK><MV>url</MV><MA>A</MA>",
		},
		ContractBlobs: [][]byte{
			blob,
			{0xff}, // undecodable, dropped
		},
	}

	contracts := tx.Contracts()
	require.Len(t, contracts, 2)

	require.Equal(t, contract.TypeProject, contracts[0].Type)
	require.Equal(t, 1, contracts[0].Version)

	require.Equal(t, contract.TypeBeacon, contracts[1].Type)
	require.Equal(t, contract.CurrentVersion, contracts[1].Version)
}
