package rio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressRoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"empty":      {},
		"short":      []byte{0x01, 0x02, 0x03},
		"repetitive": bytes.Repeat([]byte("abcd1234"), 512),
	}

	for _, alg := range []Algorithm{AlgNone, AlgZlib, AlgLZ4, AlgZstd} {
		for name, src := range payloads {
			t.Run(string(alg)+"/"+name, func(t *testing.T) {
				stored, err := Compress(alg, src)
				require.NoError(t, err)

				got, err := Decompress(stored)
				require.NoError(t, err)
				assert.Equal(t, src, bytes.Clone(got))
			})
		}
	}
}

func TestCompressUnknownAlgorithm(t *testing.T) {
	_, err := Compress(Algorithm("brotli"), []byte("x"))
	require.Error(t, err)
}

func TestDecompressPassthrough(t *testing.T) {
	t.Run("short payload", func(t *testing.T) {
		src := []byte{0x01, 0x02}
		got, err := Decompress(src)
		require.NoError(t, err)
		assert.Equal(t, src, got)
	})

	t.Run("no frame magic", func(t *testing.T) {
		// Long enough for a header but not a recognized frame.
		src := bytes.Repeat([]byte{0xAB}, 32)
		got, err := Decompress(src)
		require.NoError(t, err)
		assert.Equal(t, src, got)
	})

	t.Run("magic with inconsistent size", func(t *testing.T) {
		// Starts like a zlib frame but the declared compressed size does
		// not match the body, so it must be treated as raw bytes.
		src := append([]byte{'Z', 'L', 1, 99, 0, 0, 4, 0, 0}, 0xDE, 0xAD)
		got, err := Decompress(src)
		require.NoError(t, err)
		assert.Equal(t, src, got)
	})
}

func TestDecompressCorruptBody(t *testing.T) {
	stored, err := Compress(AlgZlib, []byte("hello world, hello world"))
	require.NoError(t, err)

	// Flip bytes inside the compressed body.
	stored[frameHeaderLen] ^= 0xFF
	stored[frameHeaderLen+1] ^= 0xFF

	_, err = Decompress(stored)
	assert.Error(t, err)
}
