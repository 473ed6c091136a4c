// Package envstore serializes resolved environment assignments for
// caching and exchange. The format is a small header followed by
// snappy-compressed JSON, so records stay cheap to write in bulk and
// readable by external tooling after decompression.
package envstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/golang/snappy"

	"github.com/crystalkit/chemenv/pkg/strategies"
)

// Errors returned by the codec.
var (
	ErrBadHeader          = errors.New("envstore: bad header")
	ErrUnsupportedVersion = errors.New("envstore: unsupported format version")
)

var magic = [4]byte{'C', 'E', 'N', 'V'}

// formatVersion is bumped on any incompatible layout change.
const formatVersion byte = 1

// Encode writes the assignment to w.
func Encode(w io.Writer, light *strategies.LightStructureEnvironments) error {
	payload, err := json.Marshal(light)
	if err != nil {
		return fmt.Errorf("envstore: marshal: %w", err)
	}
	header := append(magic[:], formatVersion)
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("envstore: write header: %w", err)
	}
	if _, err := w.Write(snappy.Encode(nil, payload)); err != nil {
		return fmt.Errorf("envstore: write payload: %w", err)
	}
	return nil
}

// EncodeBytes is Encode into a fresh buffer.
func EncodeBytes(light *strategies.LightStructureEnvironments) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, light); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads an assignment written by Encode.
func Decode(r io.Reader) (*strategies.LightStructureEnvironments, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("envstore: read: %w", err)
	}
	return DecodeBytes(raw)
}

// DecodeBytes reads an assignment from an in-memory record.
func DecodeBytes(raw []byte) (*strategies.LightStructureEnvironments, error) {
	if len(raw) < len(magic)+1 || !bytes.Equal(raw[:len(magic)], magic[:]) {
		return nil, ErrBadHeader
	}
	if v := raw[len(magic)]; v != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	payload, err := snappy.Decode(nil, raw[len(magic)+1:])
	if err != nil {
		return nil, fmt.Errorf("envstore: decompress: %w", err)
	}
	var light strategies.LightStructureEnvironments
	if err := json.Unmarshal(payload, &light); err != nil {
		return nil, fmt.Errorf("envstore: unmarshal: %w", err)
	}
	return &light, nil
}
