package contract

import "strings"

// Legacy contracts are tag-delimited strings embedded as free text inside a
// transaction field:
//
//	<MT>{type}</MT><MK>{key}</MK><MV>{value}</MV><MA>{action}</MA>
//	<MPK>{pubkey-hex}</MPK><MS>{signature-base64}</MS>
//
// Message contracts serialize to a distinct single-tag wrapper.

// Detect returns true when the message embeds a legacy contract. Superblocks
// share the marker but are a distinct record handled elsewhere.
func Detect(message string) bool {
	return message != "" &&
		strings.Contains(message, "<MT>") &&
		!strings.Contains(message, "<MT>superblock</MT>")
}

// Parse extracts a version 1 contract from a legacy message. An empty
// message produces an empty, invalid contract.
func Parse(message string) Contract {
	if message == "" {
		return Contract{
			Version: CurrentVersion,
			Body:    NewBody(EmptyPayload{}),
		}
	}

	return Contract{
		// Legacy tag-delimited string contracts always parse to v1.
		Version: 1,
		Type:    ParseType(extractTag(message, "<MT>", "</MT>")),
		Action:  ParseAction(extractTag(message, "<MA>", "</MA>")),
		Body: NewBody(&LegacyPayload{
			Key:   extractTag(message, "<MK>", "</MK>"),
			Value: extractTag(message, "<MV>", "</MV>"),
		}),
		Signature: ParseSignature(extractTag(message, "<MS>", "</MS>")),
		// None of the currently-valid contract types support signing with a
		// user-supplied private key, so the public key tag is not parsed.
		// Contracts are verified with the master and message keys.
		PublicKey: PublicKey{},
	}
}

// String returns the canonical tagged-string wire shape of the contract,
// regardless of its internal version.
func (c Contract) String() string {
	payload := c.Body.AssumeLegacy()

	if c.Type == TypeMessage {
		return "<MESSAGE>" + payload.LegacyValueString() + "</MESSAGE>"
	}

	return "<MT>" + c.Type.String() + "</MT>" +
		"<MK>" + payload.LegacyKeyString() + "</MK>" +
		"<MV>" + payload.LegacyValueString() + "</MV>" +
		"<MA>" + c.Action.String() + "</MA>" +
		"<MPK>" + c.PublicKey.String() + "</MPK>" +
		"<MS>" + c.Signature.String() + "</MS>"
}

// extractTag returns the text between the opening and closing tags, or an
// empty string when either is missing.
func extractTag(message, open, close string) string {
	start := strings.Index(message, open)
	if start < 0 {
		return ""
	}

	start += len(open)

	end := strings.Index(message[start:], close)
	if end < 0 {
		return ""
	}

	return message[start : start+end]
}
