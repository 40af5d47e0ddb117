package contract

import (
	"encoding/base64"
	"encoding/hex"
	"io"
	"strings"
)

// Payload is the capability any contract body must provide. The serialization
// primitives are keyed by the contract action because remove actions may omit
// fields the add action requires.
type Payload interface {
	// ContractType returns the type the payload declares for itself.
	ContractType() Type

	// WellFormed returns the structural well-formedness of the payload for
	// the given action.
	WellFormed(action Action) bool

	// LegacyKeyString returns the key of the payload as it appears in a
	// legacy contract.
	LegacyKeyString() string

	// LegacyValueString returns the value of the payload as it appears in a
	// legacy contract.
	LegacyValueString() string

	// RequiredBurnAmount returns the fee a transaction must destroy to post
	// the payload.
	RequiredBurnAmount() int64

	// Serialize writes the binary representation of the payload for the
	// given action.
	Serialize(w io.Writer, action Action) error

	// Deserialize reads the binary representation of the payload for the
	// given action.
	Deserialize(r io.Reader, action Action) error
}

// EmptyPayload is an invalid contract payload. Useful for situations where
// the interface must be satisfied but no valid payload exists.
//
// - implements contract.Payload
type EmptyPayload struct{}

// ContractType implements contract.Payload.
func (p EmptyPayload) ContractType() Type {
	return TypeUnknown
}

// WellFormed implements contract.Payload. It always fails.
func (p EmptyPayload) WellFormed(action Action) bool {
	return false
}

// LegacyKeyString implements contract.Payload.
func (p EmptyPayload) LegacyKeyString() string {
	return ""
}

// LegacyValueString implements contract.Payload.
func (p EmptyPayload) LegacyValueString() string {
	return ""
}

// RequiredBurnAmount implements contract.Payload. An empty payload can never
// be posted.
func (p EmptyPayload) RequiredBurnAmount() int64 {
	return MaxMoney
}

// Serialize implements contract.Payload.
func (p EmptyPayload) Serialize(w io.Writer, action Action) error {
	return nil
}

// Deserialize implements contract.Payload.
func (p EmptyPayload) Deserialize(r io.Reader, action Action) error {
	return nil
}

// LegacyPayload carries the raw key and value strings of a version 1
// contract. Version 2+ contracts of the protocol and scraper types keep this
// shape because their registries are still keyed by plain strings.
//
// - implements contract.Payload
type LegacyPayload struct {
	Key   string
	Value string
}

// ContractType implements contract.Payload. A legacy slot carries no type of
// its own; the enclosing contract declares it.
func (p *LegacyPayload) ContractType() Type {
	return TypeUnknown
}

// WellFormed implements contract.Payload.
func (p *LegacyPayload) WellFormed(action Action) bool {
	return p.Key != "" && (action == ActionRemove || p.Value != "")
}

// LegacyKeyString implements contract.Payload.
func (p *LegacyPayload) LegacyKeyString() string {
	return p.Key
}

// LegacyValueString implements contract.Payload.
func (p *LegacyPayload) LegacyValueString() string {
	return p.Value
}

// RequiredBurnAmount implements contract.Payload.
func (p *LegacyPayload) RequiredBurnAmount() int64 {
	return StandardBurnAmount
}

// Serialize implements contract.Payload.
func (p *LegacyPayload) Serialize(w io.Writer, action Action) error {
	err := writeString(w, p.Key)
	if err != nil {
		return err
	}

	if action != ActionRemove {
		return writeString(w, p.Value)
	}

	return nil
}

// Deserialize implements contract.Payload.
func (p *LegacyPayload) Deserialize(r io.Reader, action Action) error {
	key, err := readString(r)
	if err != nil {
		return err
	}

	p.Key = key

	if action != ActionRemove {
		value, err := readString(r)
		if err != nil {
			return err
		}

		p.Value = value
	}

	return nil
}

// BeaconPayload advertises the public key a participant uses to sign its
// research claims, keyed by the participant identifier.
//
// - implements contract.Payload
type BeaconPayload struct {
	Cpid      string
	PublicKey PublicKey
}

// ParseBeaconPayload builds a beacon payload from the legacy key and value
// strings. The legacy value is a base64 list of semicolon-separated fields
// whose fourth element holds the hexadecimal beacon public key. Malformed
// input produces a payload that fails WellFormed.
func ParseBeaconPayload(key, value string) *BeaconPayload {
	payload := &BeaconPayload{Cpid: key}

	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return payload
	}

	parts := strings.Split(string(decoded), ";")
	if len(parts) < 4 {
		return payload
	}

	payload.PublicKey = ParsePublicKey(parts[3])

	return payload
}

// ContractType implements contract.Payload.
func (p *BeaconPayload) ContractType() Type {
	return TypeBeacon
}

// WellFormed implements contract.Payload. A removal only identifies the
// beacon so it carries no key material.
func (p *BeaconPayload) WellFormed(action Action) bool {
	if !validCpid(p.Cpid) {
		return false
	}

	return action == ActionRemove || p.PublicKey.Viable()
}

// LegacyKeyString implements contract.Payload.
func (p *BeaconPayload) LegacyKeyString() string {
	return p.Cpid
}

// LegacyValueString implements contract.Payload. It rebuilds the legacy
// base64 envelope around the public key.
func (p *BeaconPayload) LegacyValueString() string {
	plain := "0;0;0;" + p.PublicKey.String()

	return base64.StdEncoding.EncodeToString([]byte(plain))
}

// RequiredBurnAmount implements contract.Payload.
func (p *BeaconPayload) RequiredBurnAmount() int64 {
	return StandardBurnAmount
}

// Serialize implements contract.Payload.
func (p *BeaconPayload) Serialize(w io.Writer, action Action) error {
	err := writeString(w, p.Cpid)
	if err != nil {
		return err
	}

	if action != ActionRemove {
		return writeBytes(w, p.PublicKey.Raw())
	}

	return nil
}

// Deserialize implements contract.Payload.
func (p *BeaconPayload) Deserialize(r io.Reader, action Action) error {
	cpid, err := readString(r)
	if err != nil {
		return err
	}

	p.Cpid = cpid

	if action != ActionRemove {
		key, err := readBytes(r)
		if err != nil {
			return err
		}

		p.PublicKey = NewPublicKey(key)
	}

	return nil
}

// validCpid reports whether the participant identifier is a 16 byte
// hexadecimal digest.
func validCpid(cpid string) bool {
	if len(cpid) != 32 {
		return false
	}

	_, err := hex.DecodeString(cpid)

	return err == nil
}

// PollPayload describes a poll the network votes on.
//
// - implements contract.Payload
type PollPayload struct {
	Title    string
	Question string
	URL      string
	Choices  []string
	Days     uint32
}

// ParsePollPayload builds a poll payload from the tag-delimited legacy value
// string.
func ParsePollPayload(value string) *PollPayload {
	payload := &PollPayload{
		Title:    extractTag(value, "<TITLE>", "</TITLE>"),
		Question: extractTag(value, "<QUESTION>", "</QUESTION>"),
		URL:      extractTag(value, "<URL>", "</URL>"),
	}

	answers := extractTag(value, "<ANSWERS>", "</ANSWERS>")
	if answers != "" {
		payload.Choices = strings.Split(answers, ";")
	}

	days := extractTag(value, "<DAYS>", "</DAYS>")
	for i := 0; i < len(days); i++ {
		if days[i] < '0' || days[i] > '9' {
			return payload
		}

		payload.Days = payload.Days*10 + uint32(days[i]-'0')
	}

	return payload
}

// ContractType implements contract.Payload.
func (p *PollPayload) ContractType() Type {
	return TypePoll
}

// WellFormed implements contract.Payload.
func (p *PollPayload) WellFormed(action Action) bool {
	if p.Title == "" {
		return false
	}

	return action == ActionRemove ||
		(p.Question != "" && len(p.Choices) > 0 && p.Days > 0)
}

// LegacyKeyString implements contract.Payload.
func (p *PollPayload) LegacyKeyString() string {
	return p.Title
}

// LegacyValueString implements contract.Payload.
func (p *PollPayload) LegacyValueString() string {
	days := ""
	for v := p.Days; v > 0; v /= 10 {
		days = string(rune('0'+v%10)) + days
	}

	return "<TITLE>" + p.Title + "</TITLE>" +
		"<DAYS>" + days + "</DAYS>" +
		"<QUESTION>" + p.Question + "</QUESTION>" +
		"<ANSWERS>" + strings.Join(p.Choices, ";") + "</ANSWERS>" +
		"<URL>" + p.URL + "</URL>"
}

// RequiredBurnAmount implements contract.Payload. Posting a poll costs more
// than other contract types to discourage spam.
func (p *PollPayload) RequiredBurnAmount() int64 {
	return 50 * Coin
}

// Serialize implements contract.Payload.
func (p *PollPayload) Serialize(w io.Writer, action Action) error {
	err := writeString(w, p.Title)
	if err != nil {
		return err
	}

	if action == ActionRemove {
		return nil
	}

	for _, field := range []string{p.Question, p.URL} {
		err = writeString(w, field)
		if err != nil {
			return err
		}
	}

	err = writeStringSlice(w, p.Choices)
	if err != nil {
		return err
	}

	return writeUint32(w, p.Days)
}

// Deserialize implements contract.Payload.
func (p *PollPayload) Deserialize(r io.Reader, action Action) error {
	title, err := readString(r)
	if err != nil {
		return err
	}

	p.Title = title

	if action == ActionRemove {
		return nil
	}

	p.Question, err = readString(r)
	if err != nil {
		return err
	}

	p.URL, err = readString(r)
	if err != nil {
		return err
	}

	p.Choices, err = readStringSlice(r)
	if err != nil {
		return err
	}

	p.Days, err = readUint32(r)

	return err
}

// VotePayload answers a poll.
//
// - implements contract.Payload
type VotePayload struct {
	PollTitle string
	Responses []string
}

// ParseVotePayload builds a vote payload from the legacy key and value
// strings. The key names the poll and the value lists the responses
// separated by semicolons.
func ParseVotePayload(key, value string) *VotePayload {
	payload := &VotePayload{PollTitle: key}

	if value != "" {
		payload.Responses = strings.Split(value, ";")
	}

	return payload
}

// ContractType implements contract.Payload.
func (p *VotePayload) ContractType() Type {
	return TypeVote
}

// WellFormed implements contract.Payload.
func (p *VotePayload) WellFormed(action Action) bool {
	return p.PollTitle != "" &&
		(action == ActionRemove || len(p.Responses) > 0)
}

// LegacyKeyString implements contract.Payload.
func (p *VotePayload) LegacyKeyString() string {
	return p.PollTitle
}

// LegacyValueString implements contract.Payload.
func (p *VotePayload) LegacyValueString() string {
	return strings.Join(p.Responses, ";")
}

// RequiredBurnAmount implements contract.Payload.
func (p *VotePayload) RequiredBurnAmount() int64 {
	return StandardBurnAmount
}

// Serialize implements contract.Payload.
func (p *VotePayload) Serialize(w io.Writer, action Action) error {
	err := writeString(w, p.PollTitle)
	if err != nil {
		return err
	}

	if action != ActionRemove {
		return writeStringSlice(w, p.Responses)
	}

	return nil
}

// Deserialize implements contract.Payload.
func (p *VotePayload) Deserialize(r io.Reader, action Action) error {
	title, err := readString(r)
	if err != nil {
		return err
	}

	p.PollTitle = title

	if action != ActionRemove {
		p.Responses, err = readStringSlice(r)

		return err
	}

	return nil
}

// ProjectPayload describes an entry of the project whitelist.
//
// - implements contract.Payload
type ProjectPayload struct {
	Version uint32
	Name    string
	URL     string
}

// ContractType implements contract.Payload.
func (p *ProjectPayload) ContractType() Type {
	return TypeProject
}

// WellFormed implements contract.Payload.
func (p *ProjectPayload) WellFormed(action Action) bool {
	return p.Name != "" && (action == ActionRemove || p.URL != "")
}

// LegacyKeyString implements contract.Payload.
func (p *ProjectPayload) LegacyKeyString() string {
	return p.Name
}

// LegacyValueString implements contract.Payload.
func (p *ProjectPayload) LegacyValueString() string {
	return p.URL
}

// RequiredBurnAmount implements contract.Payload.
func (p *ProjectPayload) RequiredBurnAmount() int64 {
	return StandardBurnAmount
}

// Serialize implements contract.Payload.
func (p *ProjectPayload) Serialize(w io.Writer, action Action) error {
	err := writeUint32(w, p.Version)
	if err != nil {
		return err
	}

	err = writeString(w, p.Name)
	if err != nil {
		return err
	}

	if action != ActionRemove {
		return writeString(w, p.URL)
	}

	return nil
}

// Deserialize implements contract.Payload.
func (p *ProjectPayload) Deserialize(r io.Reader, action Action) error {
	version, err := readUint32(r)
	if err != nil {
		return err
	}

	p.Version = version

	p.Name, err = readString(r)
	if err != nil {
		return err
	}

	if action != ActionRemove {
		p.URL, err = readString(r)

		return err
	}

	return nil
}

// ClaimPayload carries the reward claim of a staked block. Claims exist only
// in coinbase transactions and have no legacy contract representation.
//
// - implements contract.Payload
type ClaimPayload struct {
	Version         uint32
	Cpid            string
	BlockSubsidy    int64
	ResearchSubsidy int64
	Signature       []byte
}

// ContractType implements contract.Payload.
func (p *ClaimPayload) ContractType() Type {
	return TypeClaim
}

// WellFormed implements contract.Payload. Claims are only ever added.
func (p *ClaimPayload) WellFormed(action Action) bool {
	return action == ActionAdd && p.Version > 0 && p.BlockSubsidy >= 0 &&
		p.ResearchSubsidy >= 0 &&
		(p.ResearchSubsidy == 0 || validCpid(p.Cpid))
}

// LegacyKeyString implements contract.Payload.
func (p *ClaimPayload) LegacyKeyString() string {
	return ""
}

// LegacyValueString implements contract.Payload.
func (p *ClaimPayload) LegacyValueString() string {
	return ""
}

// RequiredBurnAmount implements contract.Payload. Claims ride in the
// coinbase and burn nothing.
func (p *ClaimPayload) RequiredBurnAmount() int64 {
	return 0
}

// Serialize implements contract.Payload.
func (p *ClaimPayload) Serialize(w io.Writer, action Action) error {
	err := writeUint32(w, p.Version)
	if err != nil {
		return err
	}

	err = writeString(w, p.Cpid)
	if err != nil {
		return err
	}

	err = writeInt64(w, p.BlockSubsidy)
	if err != nil {
		return err
	}

	err = writeInt64(w, p.ResearchSubsidy)
	if err != nil {
		return err
	}

	return writeBytes(w, p.Signature)
}

// Deserialize implements contract.Payload.
func (p *ClaimPayload) Deserialize(r io.Reader, action Action) error {
	version, err := readUint32(r)
	if err != nil {
		return err
	}

	p.Version = version

	p.Cpid, err = readString(r)
	if err != nil {
		return err
	}

	p.BlockSubsidy, err = readInt64(r)
	if err != nil {
		return err
	}

	p.ResearchSubsidy, err = readInt64(r)
	if err != nil {
		return err
	}

	p.Signature, err = readBytes(r)

	return err
}

// MessagePayload carries an arbitrary user message. Messages pass through the
// dispatch path so handlers can observe them but mutate no registry.
//
// - implements contract.Payload
type MessagePayload struct {
	Text string
}

// ContractType implements contract.Payload.
func (p *MessagePayload) ContractType() Type {
	return TypeMessage
}

// WellFormed implements contract.Payload. A message cannot be removed.
func (p *MessagePayload) WellFormed(action Action) bool {
	return action == ActionAdd && p.Text != ""
}

// LegacyKeyString implements contract.Payload.
func (p *MessagePayload) LegacyKeyString() string {
	return ""
}

// LegacyValueString implements contract.Payload.
func (p *MessagePayload) LegacyValueString() string {
	return p.Text
}

// RequiredBurnAmount implements contract.Payload.
func (p *MessagePayload) RequiredBurnAmount() int64 {
	return StandardBurnAmount
}

// Serialize implements contract.Payload.
func (p *MessagePayload) Serialize(w io.Writer, action Action) error {
	return writeString(w, p.Text)
}

// Deserialize implements contract.Payload.
func (p *MessagePayload) Deserialize(r io.Reader, action Action) error {
	text, err := readString(r)
	if err != nil {
		return err
	}

	p.Text = text

	return nil
}
