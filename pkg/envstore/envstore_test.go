package envstore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystalkit/chemenv/pkg/strategies"
)

func sampleLight() *strategies.LightStructureEnvironments {
	return &strategies.LightStructureEnvironments{
		RunID:    "8b0f3c1a-0000-4000-8000-000000000001",
		Strategy: "multi_weights",
		Sites: [][]strategies.EnvironmentRecord{
			{
				{Symbol: "L:2", Fraction: 0.95, CSM: 0.8, Permutation: []int{0, 1}},
				{Symbol: "A:2", Fraction: 0.05, CSM: 24.1, Permutation: []int{1, 0}},
			},
			nil, // filtered site
			{
				{Symbol: "T:4", Fraction: 1.0, CSM: 0.0, Permutation: []int{0, 1, 2, 3}},
			},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	light := sampleLight()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, light))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, light, got)
}

func TestDecodeBadHeader(t *testing.T) {
	_, err := DecodeBytes([]byte("XXXX\x01"))
	assert.ErrorIs(t, err, ErrBadHeader)

	_, err = DecodeBytes(nil)
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	raw, err := EncodeBytes(sampleLight())
	require.NoError(t, err)

	raw[4] = 99
	_, err = DecodeBytes(raw)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeCorruptPayload(t *testing.T) {
	raw, err := EncodeBytes(sampleLight())
	require.NoError(t, err)

	raw = append(raw[:8], []byte("garbage")...)
	_, err = DecodeBytes(raw)
	assert.Error(t, err)
}
