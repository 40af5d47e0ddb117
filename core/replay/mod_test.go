package replay

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/meridian-network/meridian/core/appcache"
	"github.com/meridian-network/meridian/core/chain"
	"github.com/meridian-network/meridian/core/contract"
	"github.com/meridian-network/meridian/core/dispatch"
	"github.com/meridian-network/meridian/internal/testing/fake"
	"github.com/meridian-network/meridian/registry/beacon"
	"github.com/meridian-network/meridian/registry/poll"
	"github.com/meridian-network/meridian/registry/project"
	"github.com/stretchr/testify/require"
)

const testCpid = "8edc235ddcecf9c416a432a4b14bf0a8"

// fixture wires a replay engine to real registries and a fake block storage.
type fixture struct {
	engine    *Engine
	index     *chain.Index
	reader    *fake.BlockReader
	beacons   *beacon.Registry
	polls     *poll.Registry
	projects  *project.Whitelist
	cache     *appcache.Cache
	refresher *fake.Refresher
}

func makeFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		index:     chain.NewIndex(),
		reader:    fake.NewBlockReader(),
		beacons:   beacon.NewRegistry(),
		polls:     poll.NewRegistry(),
		projects:  project.NewWhitelist(),
		cache:     appcache.New(),
		refresher: &fake.Refresher{},
	}

	dispatcher := dispatch.New(f.beacons, f.polls, f.projects, f.cache)

	f.engine = NewEngine(f.reader, dispatcher, f.beacons, f.refresher,
		TestNetParams(), nil)

	return f
}

// addBlock appends an index entry and, when a body is given, stores it.
func (f *fixture) addBlock(t *testing.T, entry *chain.BlockIndex, block *chain.Block) {
	t.Helper()

	require.NoError(t, f.index.Append(entry))

	if block != nil {
		f.reader.Blocks[entry.Height] = block
	}
}

// contractBlock wraps messages and blobs in a block body behind the empty
// coinbase and coinstake slots.
func contractBlock(time int64, messages []string, blobs [][]byte) *chain.Block {
	return &chain.Block{
		Time: time,
		Transactions: []chain.Transaction{
			{Time: time},
			{Time: time},
			{Time: time, Messages: messages, ContractBlobs: blobs},
		},
	}
}

func signedBeaconMessage(t *testing.T) string {
	t.Helper()

	c := contract.MakeLegacy(contract.TypeBeacon, contract.ActionAdd,
		testCpid, beaconLegacyValue())
	require.NoError(t, c.SignWithMessageKey())

	return c.String()
}

func beaconLegacyValue() string {
	payload := &contract.BeaconPayload{
		Cpid:      testCpid,
		PublicKey: contract.MessagePublicKey(),
	}

	return payload.LegacyValueString()
}

func beaconBlob(t *testing.T, action contract.Action) []byte {
	t.Helper()

	c := contract.New(action, &contract.BeaconPayload{
		Cpid:      testCpid,
		PublicKey: contract.MessagePublicKey(),
	})

	blob, err := c.Serialize()
	require.NoError(t, err)

	return blob
}

func TestEngine_Replay(t *testing.T) {
	f := makeFixture(t)

	f.addBlock(t, &chain.BlockIndex{Height: 1, Time: 1000}, nil)
	f.addBlock(t, &chain.BlockIndex{Height: 2, Time: 2000, IsContract: true},
		contractBlock(2000, []string{signedBeaconMessage(t)}, nil))
	f.addBlock(t, &chain.BlockIndex{Height: 3, Time: 3000}, nil)

	f.engine.Replay(f.index.Tip())

	b, found := f.beacons.Try(testCpid)
	require.True(t, found)
	require.Equal(t, int64(2000), b.Timestamp)
	require.Equal(t, 1, f.beacons.Count())

	// The identity resolution is recomputed once, at the end of the scan.
	require.Equal(t, 1, f.refresher.Refreshed)

	// Blocks without the contract flag are never read from storage.
	require.Equal(t, 1, f.reader.Reads)
}

func TestEngine_Replay_Idempotent(t *testing.T) {
	f := makeFixture(t)

	f.addBlock(t, &chain.BlockIndex{Height: 1, Time: 1000, IsContract: true},
		contractBlock(1000, []string{signedBeaconMessage(t)}, nil))

	f.engine.Replay(f.index.Tip())
	f.engine.Replay(f.index.Tip())

	// Handlers are reset before each scan, so state never accumulates.
	require.Equal(t, 1, f.beacons.Count())
}

func TestEngine_Replay_StopsAtTarget(t *testing.T) {
	f := makeFixture(t)

	f.addBlock(t, &chain.BlockIndex{Height: 1, Time: 1000, IsContract: true},
		contractBlock(1000, []string{signedBeaconMessage(t)}, nil))
	f.addBlock(t, &chain.BlockIndex{Height: 2, Time: 2000, IsContract: true},
		contractBlock(2000, nil, [][]byte{beaconBlob(t, contract.ActionRemove)}))

	f.engine.Replay(f.index.Genesis())

	// The removal sits above the target and must not be applied.
	require.Equal(t, 1, f.beacons.Count())
}

func TestEngine_Replay_SkipsUnreadableBlock(t *testing.T) {
	f := makeFixture(t)

	f.addBlock(t, &chain.BlockIndex{Height: 1, Time: 1000, IsContract: true}, nil)
	f.reader.Fail[1] = struct{}{}

	f.addBlock(t, &chain.BlockIndex{Height: 2, Time: 2000, IsContract: true},
		contractBlock(2000, []string{signedBeaconMessage(t)}, nil))

	f.engine.Replay(f.index.Tip())

	// The unreadable block loses its contracts; the scan continues.
	require.Equal(t, 1, f.beacons.Count())
	require.Equal(t, 1, f.refresher.Refreshed)
}

func TestEngine_Replay_BelowActivation(t *testing.T) {
	f := makeFixture(t)
	f.engine.params.ContractActivationHeight = 100

	f.addBlock(t, &chain.BlockIndex{Height: 1, Time: 1000, IsContract: true},
		contractBlock(1000, []string{signedBeaconMessage(t)}, nil))

	f.engine.Replay(f.index.Tip())

	require.Equal(t, 0, f.beacons.Count())
	require.Equal(t, 0, f.reader.Reads)
}

func TestEngine_Replay_NilTarget(t *testing.T) {
	f := makeFixture(t)

	f.engine.Replay(nil)

	require.Equal(t, 0, f.refresher.Refreshed)
}

func TestEngine_Replay_ActivatesSuperblockBeacons(t *testing.T) {
	f := makeFixture(t)

	f.addBlock(t, &chain.BlockIndex{Height: 1, Time: 1000, IsContract: true},
		contractBlock(1000, nil, [][]byte{beaconBlob(t, contract.ActionAdd)}))

	superblock := &chain.Block{
		Time:         5000,
		Transactions: []chain.Transaction{{Time: 5000}, {Time: 5000}},
		Superblock: &chain.Superblock{
			Version:         2,
			VerifiedBeacons: []string{testCpid},
		},
	}
	f.addBlock(t, &chain.BlockIndex{
		Height:       2,
		Time:         5000,
		Version:      11,
		IsSuperblock: true,
	}, superblock)

	f.engine.Replay(f.index.Tip())

	b, found := f.beacons.Try(testCpid)
	require.True(t, found)
	require.Equal(t, beacon.StatusActive, b.Status)
	require.Equal(t, int64(5000), b.Timestamp)
}

func TestEngine_Replay_IgnoresOldSuperblocks(t *testing.T) {
	f := makeFixture(t)

	f.addBlock(t, &chain.BlockIndex{Height: 1, Time: 1000, IsContract: true},
		contractBlock(1000, nil, [][]byte{beaconBlob(t, contract.ActionAdd)}))

	// A superblock below the contract version keeps its beacons pending.
	f.addBlock(t, &chain.BlockIndex{
		Height:       2,
		Time:         5000,
		Version:      10,
		IsSuperblock: true,
	}, &chain.Block{Time: 5000, Superblock: &chain.Superblock{
		VerifiedBeacons: []string{testCpid},
	}})

	f.engine.Replay(f.index.Tip())

	_, found := f.beacons.Try(testCpid)
	require.False(t, found)

	_, found = f.beacons.TryPending(testCpid)
	require.True(t, found)
}

func TestEngine_ApplyBlock_SkipsCoinbaseAndCoinstake(t *testing.T) {
	f := makeFixture(t)

	message := signedBeaconMessage(t)

	block := &chain.Block{
		Time: 1000,
		Transactions: []chain.Transaction{
			{Time: 1000, Messages: []string{message}},
			{Time: 1000, Messages: []string{message}},
		},
	}

	found := f.engine.ApplyBlock(block, &chain.BlockIndex{Height: 1})

	require.False(t, found)
	require.Equal(t, 0, f.beacons.Count())
}

func TestEngine_ApplyContracts_SkipsInvalidLegacy(t *testing.T) {
	f := makeFixture(t)

	// An unsigned legacy contract fails validation and is a silent no-op.
	unsigned := contract.MakeLegacy(contract.TypeBeacon, contract.ActionAdd,
		testCpid, beaconLegacyValue())

	// An unknown action is not well-formed either.
	badAction := "<MT>project</MT><MK>seti</MK><MV>url</MV><MA>X</MA>"

	tx := &chain.Transaction{
		Time:     1000,
		Messages: []string{unsigned.String(), badAction},
	}

	found := f.engine.ApplyContracts(tx, &chain.BlockIndex{Height: 1})

	require.False(t, found)
	require.Equal(t, 0, f.beacons.Count())
	require.Equal(t, 0, f.projects.Count())
}

func TestEngine_ApplyContracts_MessageNotTracked(t *testing.T) {
	f := makeFixture(t)

	c := contract.New(contract.ActionAdd, &contract.MessagePayload{Text: "hello"})

	blob, err := c.Serialize()
	require.NoError(t, err)

	tx := &chain.Transaction{Time: 1000, ContractBlobs: [][]byte{blob}}

	// A message contract is processed but never marks the transaction as
	// carrying a trackable contract.
	found := f.engine.ApplyContracts(tx, &chain.BlockIndex{Height: 1})
	require.False(t, found)

	tx.Messages = []string{signedBeaconMessage(t)}

	found = f.engine.ApplyContracts(tx, &chain.BlockIndex{Height: 1})
	require.True(t, found)
}

func TestEngine_ApplyContracts_MarksIdentityDirty(t *testing.T) {
	f := makeFixture(t)

	priv := secp256k1.PrivKeyFromBytes([]byte("master-seed-for-tests-0123456789"))
	contract.SetMasterPublicKey(contract.NewPublicKey(priv.PubKey().SerializeUncompressed()))
	defer contract.SetMasterPublicKey(contract.PublicKey{})

	c := contract.MakeLegacy(contract.TypeProtocol, contract.ActionAdd,
		RequireTeamWhitelistKey, "true")
	require.NoError(t, c.Sign(priv))

	tx := &chain.Transaction{Time: 1000, Messages: []string{c.String()}}

	f.engine.ApplyContracts(tx, &chain.BlockIndex{Height: 1})

	require.Equal(t, 1, f.refresher.Dirty)

	entry, found := f.cache.Get(appcache.SectionProtocol, RequireTeamWhitelistKey)
	require.True(t, found)
	require.Equal(t, "true", entry.Value)
}

func TestEngine_ValidateContracts(t *testing.T) {
	f := makeFixture(t)

	vote := contract.New(contract.ActionAdd, &contract.VotePayload{
		PollTitle: "unknown_poll",
		Responses: []string{"yes"},
	})

	blob, err := vote.Serialize()
	require.NoError(t, err)

	// A vote for an unknown poll is rejected by the poll registry.
	tx := &chain.Transaction{Time: 1000, ContractBlobs: [][]byte{blob}}
	require.False(t, f.engine.ValidateContracts(tx))

	tx = &chain.Transaction{Time: 1000, ContractBlobs: [][]byte{beaconBlob(t, contract.ActionAdd)}}
	require.True(t, f.engine.ValidateContracts(tx))
}

func TestEngine_RevertContracts(t *testing.T) {
	f := makeFixture(t)

	blob := beaconBlob(t, contract.ActionAdd)
	tx := &chain.Transaction{Time: 1000, ContractBlobs: [][]byte{blob}}
	index := &chain.BlockIndex{Height: 1}

	f.engine.ApplyContracts(tx, index)

	_, found := f.beacons.TryPending(testCpid)
	require.True(t, found)

	f.engine.RevertContracts(tx, index)

	_, found = f.beacons.TryPending(testCpid)
	require.False(t, found)
}

func TestEngine_RevertContracts_SkipsUnverifiable(t *testing.T) {
	f := makeFixture(t)

	signed := signedBeaconMessage(t)

	tx := &chain.Transaction{Time: 1000, Messages: []string{signed}}
	index := &chain.BlockIndex{Height: 1}

	f.engine.ApplyContracts(tx, index)
	require.Equal(t, 1, f.beacons.Count())

	// An unverifiable legacy contract cannot revert anything.
	unsigned := contract.MakeLegacy(contract.TypeBeacon, contract.ActionAdd,
		testCpid, beaconLegacyValue())

	f.engine.RevertContracts(
		&chain.Transaction{Time: 1000, Messages: []string{unsigned.String()}}, index)
	require.Equal(t, 1, f.beacons.Count())

	f.engine.RevertContracts(tx, index)
	require.Equal(t, 0, f.beacons.Count())
}
