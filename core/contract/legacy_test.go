package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	require.False(t, Detect(""))
	require.False(t, Detect("plain transaction message"))
	require.True(t, Detect("<MT>beacon</MT><MK>key</MK>"))

	// Superblocks share the marker but are a distinct record.
	require.False(t, Detect("<MT>superblock</MT><MV>data</MV>"))
}

func TestParse(t *testing.T) {
	c := Parse("<MT>beacon</MT><MK>key</MK><MV>value</MV><MA>A</MA>" +
		"<MPK>deadbeef</MPK><MS>c2lnbmF0dXJl</MS>")

	require.Equal(t, 1, c.Version)
	require.Equal(t, TypeBeacon, c.Type)
	require.Equal(t, ActionAdd, c.Action)
	require.Equal(t, "key", c.Body.AssumeLegacy().LegacyKeyString())
	require.Equal(t, "value", c.Body.AssumeLegacy().LegacyValueString())
	require.Equal(t, []byte("signature"), c.Signature.Raw())

	// The public key tag is deliberately not parsed.
	require.Empty(t, c.PublicKey.Raw())
}

func TestParse_Empty(t *testing.T) {
	c := Parse("")

	require.Equal(t, CurrentVersion, c.Version)
	require.Equal(t, TypeUnknown, c.Type)
	require.False(t, c.WellFormed())
}

func TestParse_UnknownAction(t *testing.T) {
	c := Parse("<MT>beacon</MT><MK>key</MK><MV>value</MV><MA>X</MA>")

	require.Equal(t, ActionUnknown, c.Action)
	require.False(t, c.WellFormed())
}

func TestParse_RoundTrip(t *testing.T) {
	c := MakeLegacy(TypeProtocol, ActionAdd, "key", "value")
	c.Signature = NewSignature(make([]byte, 70))

	parsed := Parse(c.String())

	require.Equal(t, c.Type, parsed.Type)
	require.Equal(t, c.Action, parsed.Action)
	require.Equal(t, "key", parsed.Body.AssumeLegacy().LegacyKeyString())
	require.Equal(t, "value", parsed.Body.AssumeLegacy().LegacyValueString())
	require.Equal(t, c.Signature.Raw(), parsed.Signature.Raw())
}

func TestString_Message(t *testing.T) {
	c := New(ActionAdd, &MessagePayload{Text: "hello"})

	require.Equal(t, "<MESSAGE>hello</MESSAGE>", c.String())
}

func TestExtractTag(t *testing.T) {
	require.Equal(t, "abc", extractTag("<MK>abc</MK>", "<MK>", "</MK>"))
	require.Equal(t, "", extractTag("<MK>abc", "<MK>", "</MK>"))
	require.Equal(t, "", extractTag("abc</MK>", "<MK>", "</MK>"))
	require.Equal(t, "", extractTag("", "<MK>", "</MK>"))
}
