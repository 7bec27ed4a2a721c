package rio

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/treescan/pkg/errors"
)

// Algorithm identifies a basket compression algorithm.
type Algorithm string

const (
	// AlgNone stores baskets uncompressed
	AlgNone Algorithm = "none"
	// AlgZlib compresses baskets with zlib ("ZL" frames)
	AlgZlib Algorithm = "zlib"
	// AlgLZ4 compresses baskets with lz4 ("L4" frames)
	AlgLZ4 Algorithm = "lz4"
	// AlgZstd compresses baskets with zstd ("ZS" frames)
	AlgZstd Algorithm = "zstd"
)

// frameHeaderLen is the length of the basket frame header: a 2-byte
// magic, a 1-byte method, and two 3-byte little-endian lengths
// (compressed, then uncompressed).
const frameHeaderLen = 9

var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
)

func zstdCoders() (*zstd.Encoder, *zstd.Decoder) {
	zstdOnce.Do(func() {
		zstdEnc, _ = zstd.NewWriter(nil)
		zstdDec, _ = zstd.NewReader(nil)
	})
	return zstdEnc, zstdDec
}

// Compress wraps a basket payload in a compression frame. AlgNone
// returns the payload unchanged (no frame).
func Compress(alg Algorithm, src []byte) ([]byte, error) {
	switch alg {
	case AlgNone, "":
		return src, nil

	case AlgZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(src); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "zlib compression failed")
		}
		if err := w.Close(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "zlib compression failed")
		}
		return frame('Z', 'L', buf.Bytes(), len(src)), nil

	case AlgLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(src); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "lz4 compression failed")
		}
		if err := w.Close(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "lz4 compression failed")
		}
		return frame('L', '4', buf.Bytes(), len(src)), nil

	case AlgZstd:
		enc, _ := zstdCoders()
		return frame('Z', 'S', enc.EncodeAll(src, nil), len(src)), nil

	default:
		return nil, errors.New(errors.ErrorTypeConfig, "unknown compression algorithm").WithDetail("algorithm", string(alg))
	}
}

// Decompress unwraps a basket payload. Payloads without a recognized
// frame header are returned unchanged (uncompressed baskets).
func Decompress(src []byte) ([]byte, error) {
	if len(src) < frameHeaderLen {
		return src, nil
	}

	magic := [2]byte{src[0], src[1]}
	compressed, uncompressed := frameSizes(src)
	if len(src)-frameHeaderLen != compressed {
		return src, nil
	}
	body := src[frameHeaderLen:]

	switch magic {
	case [2]byte{'Z', 'L'}:
		r, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "zlib decompression failed")
		}
		defer r.Close()
		return readFull(r, uncompressed)

	case [2]byte{'L', '4'}:
		return readFull(lz4.NewReader(bytes.NewReader(body)), uncompressed)

	case [2]byte{'Z', 'S'}:
		_, dec := zstdCoders()
		out, err := dec.DecodeAll(body, make([]byte, 0, uncompressed))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "zstd decompression failed")
		}
		return out, nil

	default:
		return src, nil
	}
}

func frame(m0, m1 byte, body []byte, uncompressed int) []byte {
	out := make([]byte, frameHeaderLen+len(body))
	out[0], out[1] = m0, m1
	out[2] = 1 // method version
	putSize(out[3:6], len(body))
	putSize(out[6:9], uncompressed)
	copy(out[frameHeaderLen:], body)
	return out
}

func frameSizes(src []byte) (compressed, uncompressed int) {
	return getSize(src[3:6]), getSize(src[6:9])
}

func putSize(dst []byte, n int) {
	dst[0] = byte(n)
	dst[1] = byte(n >> 8)
	dst[2] = byte(n >> 16)
}

func getSize(src []byte) int {
	return int(src[0]) | int(src[1])<<8 | int(src[2])<<16
}

func readFull(r io.Reader, n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "basket decompression truncated")
	}
	return out, nil
}
