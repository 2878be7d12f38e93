package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
)

// Compression identifies a compression algorithm. It is written as the first byte of every
// encoded payload, so that a payload can be decoded without out-of-band configuration.
type Compression byte

const (
	// NoCompression stores payloads as-is
	NoCompression Compression = iota
	// LZ4Compression compresses payloads with lz4, favouring speed
	LZ4Compression
	// ZstdCompression compresses payloads with zstd, favouring size
	ZstdCompression
)

// String returns a textual representation of this Compression
func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case LZ4Compression:
		return "lz4"
	case ZstdCompression:
		return "zstd"
	}
	return fmt.Sprintf("unknown(%d)", byte(c))
}

// ParseCompression converts a name produced by Compression.String back into a Compression
func ParseCompression(name string) (Compression, error) {
	for _, c := range []Compression{NoCompression, LZ4Compression, ZstdCompression} {
		if c.String() == name {
			return c, nil
		}
	}
	return NoCompression, fmt.Errorf("unknown compression %q", name)
}

// A Compressor compresses and decompresses payloads. Compressors reuse internal buffers, and must
// not be used from more than one goroutine at a time.
type Compressor interface {
	Compression() Compression                // Compression identifies the algorithm used by this Compressor
	Compress(w io.Writer, data []byte) error // Compress writes a compressed copy of data to w
	Decompress(r io.Reader) ([]byte, error)  // Decompress reads compressed data from r
}

// NewCompressor instantiates a Compressor for the given algorithm
func NewCompressor(c Compression) (Compressor, error) {
	switch c {
	case NoCompression:
		return &identityCompressor{reusableReadBuffer: new(bytes.Buffer)}, nil
	case LZ4Compression:
		return NewLZ4Compressor(), nil
	case ZstdCompression:
		return NewZstdCompressor()
	}
	return nil, fmt.Errorf("unknown compression %s", c)
}

type identityCompressor struct {
	reusableReadBuffer *bytes.Buffer
}

func (ic *identityCompressor) Compression() Compression {
	return NoCompression
}

func (ic *identityCompressor) Compress(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return err
}

func (ic *identityCompressor) Decompress(r io.Reader) ([]byte, error) {
	ic.reusableReadBuffer.Reset()
	if _, err := ic.reusableReadBuffer.ReadFrom(r); err != nil {
		return nil, err
	}
	return copyBytes(ic.reusableReadBuffer.Bytes()), nil
}

// LZ4Compressor is a Compressor which uses the lz4 compression algorithm
type LZ4Compressor struct {
	compressor         *lz4.Writer
	decompressor       *lz4.Reader
	reusableReadBuffer *bytes.Buffer
}

// NewLZ4Compressor instantiates a new LZ4Compressor
func NewLZ4Compressor() *LZ4Compressor {
	return &LZ4Compressor{
		compressor:         lz4.NewWriter(new(bytes.Buffer)),
		decompressor:       lz4.NewReader(new(bytes.Buffer)),
		reusableReadBuffer: new(bytes.Buffer),
	}
}

// Compression returns LZ4Compression
func (lc *LZ4Compressor) Compression() Compression {
	return LZ4Compression
}

// Compress writes an lz4 frame containing data to w
func (lc *LZ4Compressor) Compress(w io.Writer, data []byte) error {
	lc.compressor.Reset(w)
	if _, err := lc.compressor.Write(data); err != nil {
		return err
	}
	return lc.compressor.Close()
}

// Decompress reads an lz4 frame from r
func (lc *LZ4Compressor) Decompress(r io.Reader) ([]byte, error) {
	lc.decompressor.Reset(r)
	lc.reusableReadBuffer.Reset()
	if _, err := lc.reusableReadBuffer.ReadFrom(lc.decompressor); err != nil {
		return nil, fmt.Errorf("unable to decompress lz4 data: %w", err)
	}
	return copyBytes(lc.reusableReadBuffer.Bytes()), nil
}

// ZstdCompressor is a Compressor which uses the zstd compression algorithm
type ZstdCompressor struct {
	compressor         *zstd.Encoder
	decompressor       *zstd.Decoder
	reusableReadBuffer *bytes.Buffer
}

// NewZstdCompressor instantiates a new ZstdCompressor
func NewZstdCompressor() (*ZstdCompressor, error) {
	compressor, err := zstd.NewWriter(new(bytes.Buffer), zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize compressor: %w", err)
	}
	decompressor, err := zstd.NewReader(new(bytes.Buffer), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize decompressor: %w", err)
	}
	return &ZstdCompressor{
		compressor:         compressor,
		decompressor:       decompressor,
		reusableReadBuffer: new(bytes.Buffer),
	}, nil
}

// Compression returns ZstdCompression
func (zc *ZstdCompressor) Compression() Compression {
	return ZstdCompression
}

// Compress writes a zstd frame containing data to w
func (zc *ZstdCompressor) Compress(w io.Writer, data []byte) error {
	zc.compressor.Reset(w)
	if _, err := zc.compressor.Write(data); err != nil {
		return err
	}
	return zc.compressor.Close()
}

// Decompress reads a zstd frame from r
func (zc *ZstdCompressor) Decompress(r io.Reader) ([]byte, error) {
	if err := zc.decompressor.Reset(r); err != nil {
		return nil, err
	}
	zc.reusableReadBuffer.Reset()
	if _, err := zc.reusableReadBuffer.ReadFrom(zc.decompressor); err != nil {
		return nil, fmt.Errorf("unable to decompress zstd data: %w", err)
	}
	return copyBytes(zc.reusableReadBuffer.Bytes()), nil
}

// Close releases the resources held by this ZstdCompressor
func (zc *ZstdCompressor) Close() {
	zc.decompressor.Close()
}

// Encode compresses a payload, prefixing it with the Compression used
func Encode(c Compressor, payload []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, len(payload)/2+1))
	buf.WriteByte(byte(c.Compression()))
	if err := c.Compress(buf, payload); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode decompresses a payload produced by Encode, using whichever Compression it names
func Decode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("encoded payload is empty")
	}
	c, err := NewCompressor(Compression(data[0]))
	if err != nil {
		return nil, err
	}
	if zc, ok := c.(*ZstdCompressor); ok {
		defer zc.Close()
	}
	return c.Decompress(bytes.NewReader(data[1:]))
}

func copyBytes(b []byte) []byte {
	res := make([]byte, len(b))
	copy(res, b)
	return res
}
