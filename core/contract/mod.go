// Package contract implements the typed, versioned and authorizable records
// embedded in transactions to mutate network-wide derived state.
//
// A contract exists in one of two shapes. Version 1 contracts are the legacy
// tag-delimited strings carried in a transaction's message field and are
// independently signed. Version 2+ contracts are binary records that rely on
// the signature of the enclosing transaction instead of embedding their own.
//
// The package owns the closed set of payload variants, the key-resolution
// policy that decides which key authorizes a contract, and both wire codecs.
//
// Documentation Last Review: 31.08.2026
package contract

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/meridian-network/meridian"
	"golang.org/x/xerrors"
)

// CurrentVersion is the highest contract version this node understands.
const CurrentVersion = 2

// Monetary units for burn fees. Amounts are expressed in the smallest coin
// denomination.
const (
	// Coin is the number of base units in one coin.
	Coin int64 = 100000000

	// StandardBurnAmount is the fee a transaction must destroy to post most
	// contract types.
	StandardBurnAmount = Coin / 2

	// MaxMoney is an amount no transaction can pay. Payloads that must never
	// be postable demand it as their burn fee.
	MaxMoney = 2000000000 * Coin
)

// Type identifies the kind of state mutation a contract performs.
type Type uint8

// The closed set of contract types. typeOutOfBound is a sentinel used only
// for exhaustiveness checks and never appears in a contract.
const (
	TypeUnknown Type = iota
	TypeBeacon
	TypeClaim
	TypeMessage
	TypePoll
	TypeProject
	TypeProtocol
	TypeScraper
	TypeVote

	typeOutOfBound
)

// ParseType returns the contract type matching the legacy wire string. Claim
// and message contracts have no legacy wire form so their strings are never
// accepted here.
func ParseType(input string) Type {
	// Ordered by frequency:
	switch input {
	case "beacon":
		return TypeBeacon
	case "vote":
		return TypeVote
	case "poll":
		return TypePoll
	case "project":
		return TypeProject
	case "scraper":
		return TypeScraper
	case "protocol":
		return TypeProtocol
	}

	return TypeUnknown
}

// String returns the wire representation of the contract type.
func (t Type) String() string {
	switch t {
	case TypeBeacon:
		return "beacon"
	case TypeClaim:
		return "claim"
	case TypeMessage:
		return "message"
	case TypePoll:
		return "poll"
	case TypeProject:
		return "project"
	case TypeProtocol:
		return "protocol"
	case TypeScraper:
		return "scraper"
	case TypeVote:
		return "vote"
	}

	return ""
}

// Action identifies the effect of a contract on its registry.
type Action uint8

// The closed set of contract actions.
const (
	ActionUnknown Action = iota
	ActionAdd
	ActionRemove
)

// ParseAction returns the action matching the legacy wire string.
func ParseAction(input string) Action {
	switch input {
	case "A":
		return ActionAdd
	case "D":
		return ActionRemove
	}

	return ActionUnknown
}

// String returns the wire representation of the contract action.
func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "A"
	case ActionRemove:
		return "D"
	}

	return ""
}

// Signature is the raw independent signature of a version 1 contract.
type Signature struct {
	bytes []byte
}

// NewSignature wraps raw signature bytes.
func NewSignature(bytes []byte) Signature {
	return Signature{bytes: bytes}
}

// ParseSignature decodes a base64 legacy signature field. Invalid input
// produces an empty, non-viable signature.
func ParseSignature(input string) Signature {
	if input == "" {
		return Signature{}
	}

	decoded, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return Signature{}
	}

	return Signature{bytes: decoded}
}

// Viable returns true when the signature has a plausible size. The
// DER-encoded ASN.1 ECDSA signatures typically contain 70 or 71 bytes but may
// hold up to 73, and sizes as low as 68 bytes exist on mainnet. Only the
// number of bytes is checked here as an early step.
func (s Signature) Viable() bool {
	return len(s.bytes) >= 64 && len(s.bytes) <= 73
}

// Raw returns the signature bytes.
func (s Signature) Raw() []byte {
	return s.bytes
}

// String returns the base64 wire representation of the signature, or an empty
// string when unset.
func (s Signature) String() string {
	if len(s.bytes) == 0 {
		return ""
	}

	return base64.StdEncoding.EncodeToString(s.bytes)
}

// PublicKey is the optional key embedded in a contract for types signed with
// a per-user key.
type PublicKey struct {
	bytes []byte
}

// NewPublicKey wraps serialized public key bytes.
func NewPublicKey(bytes []byte) PublicKey {
	return PublicKey{bytes: bytes}
}

// ParsePublicKey decodes a hexadecimal legacy public key field. Invalid input
// produces an empty, non-viable key.
func ParsePublicKey(input string) PublicKey {
	if input == "" {
		return PublicKey{}
	}

	decoded, err := hex.DecodeString(input)
	if err != nil {
		return PublicKey{}
	}

	return PublicKey{bytes: decoded}
}

// Viable returns true when the bytes decode to a valid curve point.
func (pk PublicKey) Viable() bool {
	_, err := pk.Key()

	return err == nil
}

// Key parses the bytes into a usable public key.
func (pk PublicKey) Key() (*secp256k1.PublicKey, error) {
	key, err := secp256k1.ParsePubKey(pk.bytes)
	if err != nil {
		return nil, xerrors.Errorf("couldn't parse public key: %v", err)
	}

	return key, nil
}

// Raw returns the serialized key bytes.
func (pk PublicKey) Raw() []byte {
	return pk.bytes
}

// Equal returns true when both keys hold the same bytes.
func (pk PublicKey) Equal(other PublicKey) bool {
	return pk.String() == other.String()
}

// String returns the hexadecimal wire representation of the key.
func (pk PublicKey) String() string {
	return hex.EncodeToString(pk.bytes)
}

// Body owns the single payload of a contract. The payload is immutable once
// constructed except by whole-object replacement through ResetType.
type Body struct {
	payload Payload
}

// NewBody wraps a payload. A nil payload falls back to the empty payload so a
// body is always usable.
func NewBody(payload Payload) Body {
	if payload == nil {
		payload = EmptyPayload{}
	}

	return Body{payload: payload}
}

// WellFormed returns the structural well-formedness of the payload for the
// given action.
func (b Body) WellFormed(action Action) bool {
	return b.payload.WellFormed(action)
}

// AssumeLegacy returns the payload without conversion. The caller asserts
// that the contract is a version 1 contract whose payload is a legacy slot.
func (b Body) AssumeLegacy() Payload {
	return b.payload
}

// ConvertFromLegacy maps a legacy payload to the strongly-typed payload for
// the declared contract type. Claim and message contracts have no legacy
// representation; requesting their conversion is an internal logic fault.
func (b Body) ConvertFromLegacy(t Type) (Payload, error) {
	key := b.payload.LegacyKeyString()
	value := b.payload.LegacyValueString()

	switch t {
	case TypeUnknown:
		return EmptyPayload{}, nil
	case TypeBeacon:
		return ParseBeaconPayload(key, value), nil
	case TypeClaim:
		return nil, NewFault("attempted to convert legacy claim contract")
	case TypeMessage:
		return nil, NewFault("attempted to convert legacy message contract")
	case TypePoll:
		return ParsePollPayload(value), nil
	case TypeProject:
		return &ProjectPayload{Name: key, URL: value}, nil
	case TypeProtocol:
		return b.payload, nil
	case TypeScraper:
		return b.payload, nil
	case TypeVote:
		return ParseVotePayload(key, value), nil
	}

	return nil, NewFault("out of bound contract type")
}

// ResetType replaces the payload with the zero value of the variant for the
// given type.
func (b *Body) ResetType(t Type) error {
	switch t {
	case TypeUnknown:
		b.payload = EmptyPayload{}
	case TypeBeacon:
		b.payload = &BeaconPayload{}
	case TypeClaim:
		b.payload = &ClaimPayload{}
	case TypeMessage:
		b.payload = &MessagePayload{}
	case TypePoll:
		b.payload = &PollPayload{}
	case TypeProject:
		b.payload = &ProjectPayload{}
	case TypeProtocol:
		b.payload = &LegacyPayload{}
	case TypeScraper:
		b.payload = &LegacyPayload{}
	case TypeVote:
		b.payload = &VotePayload{}
	default:
		return NewFault("out of bound contract type")
	}

	return nil
}

// Contract is a versioned envelope around one payload, together with the
// material to authorize it. It is consumed read-only once it enters the
// dispatch path.
type Contract struct {
	Version   int
	Type      Type
	Action    Action
	Body      Body
	Signature Signature
	PublicKey PublicKey
}

// New creates a contract of the current version around the given payload.
// The type is taken from the payload's own declaration.
func New(action Action, payload Payload) Contract {
	return Contract{
		Version: CurrentVersion,
		Type:    payload.ContractType(),
		Action:  action,
		Body:    NewBody(payload),
	}
}

// MakeLegacy creates a version 1 contract wrapping the legacy key and value
// strings.
func MakeLegacy(t Type, action Action, key, value string) Contract {
	return Contract{
		Version: 1,
		Type:    t,
		Action:  action,
		Body:    NewBody(&LegacyPayload{Key: key, Value: value}),
	}
}

// RequiresMasterKey returns true when the contract must be authorized by the
// network master key.
func (c Contract) RequiresMasterKey() bool {
	switch c.Type {
	case TypeBeacon:
		// Contracts version 2+ allow participants to revoke their own
		// beacons by signing them with the original private key:
		return c.Version == 1 && c.Action == ActionRemove
	case TypePoll:
		return c.Action == ActionRemove
	case TypeProject:
		return true
	case TypeProtocol:
		return true
	case TypeScraper:
		return true
	case TypeVote:
		return c.Action == ActionRemove
	}

	return false
}

// RequiresMessageKey returns true when the contract must be authorized by the
// shared message key.
func (c Contract) RequiresMessageKey() bool {
	switch c.Type {
	case TypeBeacon:
		return c.Action == ActionAdd
	case TypePoll:
		return c.Action == ActionAdd
	case TypeVote:
		return c.Action == ActionAdd
	}

	return false
}

// RequiresSpecialKey returns true when one of the protocol-fixed keys
// authorizes the contract instead of a per-user key.
func (c Contract) RequiresSpecialKey() bool {
	return c.RequiresMessageKey() || c.RequiresMasterKey()
}

// ResolvePublicKey returns the key that must verify the contract signature:
// the message key first, then the master key, then the key embedded in the
// contract.
func (c Contract) ResolvePublicKey() PublicKey {
	if c.RequiresMessageKey() {
		return MessagePublicKey()
	}

	if c.RequiresMasterKey() {
		return MasterPublicKey()
	}

	return c.PublicKey
}

// RequiredBurnAmount returns the fee a transaction must destroy to post this
// contract.
func (c Contract) RequiredBurnAmount() int64 {
	return c.Body.payload.RequiredBurnAmount()
}

// WellFormed performs the pure structural check of the contract. It touches
// no chain state and no cryptography.
func (c Contract) WellFormed() bool {
	return c.Version > 0 && c.Version <= CurrentVersion &&
		c.Type != TypeUnknown &&
		c.Action != ActionUnknown &&
		c.Body.WellFormed(c.Action) &&
		// Version 2+ contracts rely on the signatures in the transactions
		// instead of embedding another signature in the contract:
		(c.Version > 1 || c.Signature.Viable()) &&
		(c.Version > 1 || (c.RequiresSpecialKey() || c.PublicKey.Viable()))
}

// Validate checks the structure of the contract and, for version 1 only,
// verifies its independent signature. Version 2+ contracts are validated by
// the transaction layer instead.
func (c Contract) Validate() bool {
	return c.WellFormed() &&
		(c.Version > 1 || c.VerifySignature())
}

// SharePayload returns the payload of the contract. Version 1 contracts
// convert their legacy slot to the strongly-typed payload of the declared
// type; version 2+ contracts share the payload directly.
func (c Contract) SharePayload() (Payload, error) {
	if c.Version > 1 {
		return c.Body.payload, nil
	}

	return c.Body.ConvertFromLegacy(c.Type)
}

// Sign computes the signature of the contract hash with the given key. When
// the contract does not demand a protocol-fixed key, the signer's public key
// is embedded for later verification.
func (c *Contract) Sign(key *secp256k1.PrivateKey) error {
	hash, err := c.Hash()
	if err != nil {
		return xerrors.Errorf("couldn't hash contract: %v", err)
	}

	sig := ecdsa.Sign(key, hash[:])

	c.Signature = NewSignature(sig.Serialize())

	if !c.RequiresSpecialKey() {
		c.PublicKey = NewPublicKey(key.PubKey().SerializeUncompressed())
	}

	return nil
}

// SignWithMessageKey signs the contract with the shared message private key.
func (c *Contract) SignWithMessageKey() error {
	return c.Sign(MessagePrivateKey())
}

// VerifySignature verifies the independent signature of the contract against
// the resolved public key.
func (c Contract) VerifySignature() bool {
	key, err := c.ResolvePublicKey().Key()
	if err != nil {
		meridian.Logger.Error().Err(err).Msg("failed to resolve contract public key")
		return false
	}

	sig, err := ecdsa.ParseDERSignature(c.Signature.Raw())
	if err != nil {
		return false
	}

	hash, err := c.Hash()
	if err != nil {
		return false
	}

	return sig.Verify(hash[:], key)
}

// Hash returns the digest of the contract that signatures commit to.
//
// Version 1 contracts hash only the type string and the legacy key and value
// bytes, because such contracts were signed before binary serialization
// existed. This asymmetry is consensus-critical and must be preserved.
func (c Contract) Hash() ([32]byte, error) {
	if c.Version > 1 {
		data, err := c.Serialize()
		if err != nil {
			return [32]byte{}, xerrors.Errorf("couldn't serialize contract: %v", err)
		}

		return doubleSha256(data), nil
	}

	payload := c.Body.AssumeLegacy()

	data := make([]byte, 0, 64)
	data = append(data, []byte(c.Type.String())...)
	data = append(data, []byte(payload.LegacyKeyString())...)
	data = append(data, []byte(payload.LegacyValueString())...)

	return doubleSha256(data), nil
}

// ToLegacy projects the contract down to its version 1 shape, re-wrapping
// the payload as a legacy slot populated from the payload's own key and
// value string views.
func (c Contract) ToLegacy() Contract {
	return Contract{
		Version: 1,
		Type:    c.Type,
		Action:  c.Action,
		Body: NewBody(&LegacyPayload{
			Key:   c.Body.payload.LegacyKeyString(),
			Value: c.Body.payload.LegacyValueString(),
		}),
		Signature: c.Signature,
		PublicKey: c.PublicKey,
	}
}

func doubleSha256(data []byte) [32]byte {
	first := sha256.Sum256(data)

	return sha256.Sum256(first[:])
}
