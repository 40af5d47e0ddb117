package contract

import (
	"bytes"
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"
)

// The binary wire encoding of a version 2+ contract is a little-endian,
// length-prefixed serialization of {version, type, action, payload}. The
// payload fields present on the wire depend on the action discriminant. The
// authorizing signature is carried by the enclosing transaction, not by the
// contract.

// maxFieldSize bounds a single length-prefixed field to keep a corrupted
// length from allocating unbounded memory.
const maxFieldSize = 1 << 20

// Serialize returns the binary representation of the contract.
func (c Contract) Serialize() ([]byte, error) {
	buffer := new(bytes.Buffer)

	err := writeUint32(buffer, uint32(c.Version))
	if err != nil {
		return nil, xerrors.Errorf("couldn't write version: %v", err)
	}

	err = buffer.WriteByte(byte(c.Type))
	if err != nil {
		return nil, xerrors.Errorf("couldn't write type: %v", err)
	}

	err = buffer.WriteByte(byte(c.Action))
	if err != nil {
		return nil, xerrors.Errorf("couldn't write action: %v", err)
	}

	err = c.Body.AssumeLegacy().Serialize(buffer, c.Action)
	if err != nil {
		return nil, xerrors.Errorf("couldn't write payload: %v", err)
	}

	return buffer.Bytes(), nil
}

// ParseBinary decodes a binary contract. The payload variant is selected by
// the declared type before reading the payload fields gated by the action.
func ParseBinary(data []byte) (Contract, error) {
	buffer := bytes.NewReader(data)

	version, err := readUint32(buffer)
	if err != nil {
		return Contract{}, xerrors.Errorf("couldn't read version: %v", err)
	}

	if version < 2 || version > CurrentVersion {
		return Contract{}, xerrors.Errorf("unsupported binary contract version %d", version)
	}

	rawType, err := buffer.ReadByte()
	if err != nil {
		return Contract{}, xerrors.Errorf("couldn't read type: %v", err)
	}

	if Type(rawType) >= typeOutOfBound {
		return Contract{}, xerrors.Errorf("contract type %d out of bounds", rawType)
	}

	rawAction, err := buffer.ReadByte()
	if err != nil {
		return Contract{}, xerrors.Errorf("couldn't read action: %v", err)
	}

	contract := Contract{
		Version: int(version),
		Type:    Type(rawType),
		Action:  Action(rawAction),
	}

	err = contract.Body.ResetType(contract.Type)
	if err != nil {
		return Contract{}, xerrors.Errorf("couldn't reset payload: %v", err)
	}

	err = contract.Body.AssumeLegacy().Deserialize(buffer, contract.Action)
	if err != nil {
		return Contract{}, xerrors.Errorf("couldn't read payload: %v", err)
	}

	return contract, nil
}

func writeUint32(w io.Writer, value uint32) error {
	buffer := make([]byte, 4)
	binary.LittleEndian.PutUint32(buffer, value)

	_, err := w.Write(buffer)

	return err
}

func readUint32(r io.Reader) (uint32, error) {
	buffer := make([]byte, 4)

	_, err := io.ReadFull(r, buffer)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(buffer), nil
}

func writeInt64(w io.Writer, value int64) error {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, uint64(value))

	_, err := w.Write(buffer)

	return err
}

func readInt64(r io.Reader) (int64, error) {
	buffer := make([]byte, 8)

	_, err := io.ReadFull(r, buffer)
	if err != nil {
		return 0, err
	}

	return int64(binary.LittleEndian.Uint64(buffer)), nil
}

func writeBytes(w io.Writer, data []byte) error {
	err := writeUint32(w, uint32(len(data)))
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	size, err := readUint32(r)
	if err != nil {
		return nil, err
	}

	if size > maxFieldSize {
		return nil, xerrors.Errorf("field size %d above the limit", size)
	}

	data := make([]byte, size)

	_, err = io.ReadFull(r, data)
	if err != nil {
		return nil, err
	}

	return data, nil
}

func writeString(w io.Writer, value string) error {
	return writeBytes(w, []byte(value))
}

func readString(r io.Reader) (string, error) {
	data, err := readBytes(r)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func writeStringSlice(w io.Writer, values []string) error {
	err := writeUint32(w, uint32(len(values)))
	if err != nil {
		return err
	}

	for _, value := range values {
		err = writeString(w, value)
		if err != nil {
			return err
		}
	}

	return nil
}

func readStringSlice(r io.Reader) ([]string, error) {
	size, err := readUint32(r)
	if err != nil {
		return nil, err
	}

	if size > maxFieldSize {
		return nil, xerrors.Errorf("slice size %d above the limit", size)
	}

	values := make([]string, size)
	for i := range values {
		values[i], err = readString(r)
		if err != nil {
			return nil, err
		}
	}

	return values, nil
}
