package contract

import (
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// The network carries two protocol-fixed keys. The shared message key
// authorizes beacon, poll and vote additions, and the master key authorizes
// administrative contracts. Both accessors can become height-dependent if a
// key ever rotates.

// messagePublicKeyHex is the uncompressed secp256k1 point of the shared
// message key.
const messagePublicKeyHex = "044b2938fbc38071f24bede21e838a0758a52a0085f2e034e7f971df445436a25" +
	"2467f692ec9c5ba7e5eaa898ab99cbd9949496f7e3cafbf56304b1cc2e5bdf06e"

// messagePrivateKeyHex is the raw scalar of the shared message key. The key
// is public by design: any node may emit message-key contracts on behalf of
// the network.
const messagePrivateKeyHex = "fbd45ffb02ff05a3322c0d77e1e7aea264866c24e81e5a" +
	"b6a8e150666b4dc6d8"

// masterPublicKey is supplied by the wallet infrastructure owning the master
// key. It stays unset, and master-key contracts stay unverifiable, until the
// node wires the wallet in.
var masterPublicKey PublicKey

// MessagePublicKey returns the public half of the shared message key.
func MessagePublicKey() PublicKey {
	// If the message key changes, add a conditional entry to this function
	// that returns the new key for the appropriate height.
	decoded, err := hex.DecodeString(messagePublicKeyHex)
	if err != nil {
		panic(NewFault("message public key constant does not decode"))
	}

	return NewPublicKey(decoded)
}

// MessagePrivateKey returns the private half of the shared message key.
func MessagePrivateKey() *secp256k1.PrivateKey {
	// If the message key changes, add a conditional entry to this function
	// that returns the new key for the appropriate height.
	decoded, err := hex.DecodeString(messagePrivateKeyHex)
	if err != nil {
		panic(NewFault("message private key constant does not decode"))
	}

	return secp256k1.PrivKeyFromBytes(decoded)
}

// MasterPublicKey returns the public half of the master key.
func MasterPublicKey() PublicKey {
	return masterPublicKey
}

// SetMasterPublicKey installs the master public key. Key custody belongs to
// the wallet; only the verification half ever reaches this package.
func SetMasterPublicKey(key PublicKey) {
	masterPublicKey = key
}
