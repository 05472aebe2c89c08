package docstore

import (
	"bytes"
	"encoding/gob"
)

// EncodeChange serializes a change (including its op payload) for storage.
func EncodeChange(c *Change) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeChange deserializes a change previously written by EncodeChange.
func DecodeChange(data []byte) (*Change, error) {
	var c Change
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// EncodeOpsForHashing serializes an op list deterministically for inclusion
// in a ChangeID's content-addressing digest.
func EncodeOpsForHashing(ops []Op) ([]byte, error) {
	return encodeOps(ops)
}
