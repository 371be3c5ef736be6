package wire

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"sync"
)

// Compressor compresses payloads written into coalesced frames. A Framer
// owns one instance and drives it from the connection's serial context;
// implementations keep their encoder state across messages and reset it
// per Compress call.
type Compressor interface {
	// Name returns the registered encoding name.
	Name() string

	// Compress writes the compressed form of src to dst.
	Compress(dst io.Writer, src []byte) error
}

// Decompressor restores compressed frame payloads. limit caps the
// decompressed size in bytes; limit <= 0 means unlimited.
type Decompressor interface {
	// Name returns the registered encoding name.
	Name() string

	// Decompress returns the decompressed form of src, or a
	// *DecompressionLimitError when the output would exceed limit.
	Decompress(src []byte, limit int) ([]byte, error)
}

// DecompressionLimitError reports a compressed payload whose decompressed
// form exceeds the configured receive limit. CompressedSize is the size of
// the offending payload as it arrived on the wire.
type DecompressionLimitError struct {
	CompressedSize int
}

func (e *DecompressionLimitError) Error() string {
	return fmt.Sprintf("decompression exceeded the message size limit: compressed size %d bytes", e.CompressedSize)
}

// CompressorFactory creates compressor instances. The registry hands out
// factories because compressors are stateful and per-framer.
type CompressorFactory func() Compressor

// DecompressorFactory creates decompressor instances.
type DecompressorFactory func() Decompressor

var (
	_codecLock       sync.RWMutex
	_compressorMap   = make(map[string]CompressorFactory)
	_decompressorMap = make(map[string]DecompressorFactory)
)

// RegisterCompressor registers a compressor factory under name, replacing
// any previous registration. Call during package initialization.
func RegisterCompressor(name string, factory CompressorFactory) {
	_codecLock.Lock()
	defer _codecLock.Unlock()
	_compressorMap[name] = factory
}

// RegisterDecompressor registers a decompressor factory under name.
func RegisterDecompressor(name string, factory DecompressorFactory) {
	_codecLock.Lock()
	defer _codecLock.Unlock()
	_decompressorMap[name] = factory
}

// NewCompressor creates a compressor for the named encoding, or nil when
// the encoding is unknown.
func NewCompressor(name string) Compressor {
	_codecLock.RLock()
	factory := _compressorMap[name]
	_codecLock.RUnlock()
	if factory == nil {
		return nil
	}
	return factory()
}

// NewDecompressor creates a decompressor for the named encoding, or nil
// when the encoding is unknown.
func NewDecompressor(name string) Decompressor {
	_codecLock.RLock()
	factory := _decompressorMap[name]
	_codecLock.RUnlock()
	if factory == nil {
		return nil
	}
	return factory()
}

func init() {
	RegisterCompressor("identity", func() Compressor { return identityCompressor{} })
	RegisterDecompressor("identity", func() Decompressor { return identityDecompressor{} })
	RegisterCompressor("deflate", func() Compressor { return &deflateCompressor{} })
	RegisterDecompressor("deflate", func() Decompressor { return deflateDecompressor{} })
	RegisterCompressor("gzip", func() Compressor { return &gzipCompressor{} })
	RegisterDecompressor("gzip", func() Decompressor { return gzipDecompressor{} })
}

type identityCompressor struct{}

func (identityCompressor) Name() string { return "identity" }

func (identityCompressor) Compress(dst io.Writer, src []byte) error {
	_, err := dst.Write(src)
	return err
}

type identityDecompressor struct{}

func (identityDecompressor) Name() string { return "identity" }

func (identityDecompressor) Decompress(src []byte, limit int) ([]byte, error) {
	if limit > 0 && len(src) > limit {
		return nil, &DecompressionLimitError{CompressedSize: len(src)}
	}
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

// deflateCompressor keeps one zlib writer and resets it per message.
type deflateCompressor struct {
	w *zlib.Writer
}

func (*deflateCompressor) Name() string { return "deflate" }

func (c *deflateCompressor) Compress(dst io.Writer, src []byte) error {
	if c.w == nil {
		c.w = zlib.NewWriter(dst)
	} else {
		c.w.Reset(dst)
	}
	if _, err := c.w.Write(src); err != nil {
		return err
	}
	return c.w.Close()
}

type deflateDecompressor struct{}

func (deflateDecompressor) Name() string { return "deflate" }

func (deflateDecompressor) Decompress(src []byte, limit int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readLimited(r, src, limit)
}

// gzipCompressor keeps one gzip writer and resets it per message.
type gzipCompressor struct {
	w *gzip.Writer
}

func (*gzipCompressor) Name() string { return "gzip" }

func (c *gzipCompressor) Compress(dst io.Writer, src []byte) error {
	if c.w == nil {
		c.w = gzip.NewWriter(dst)
	} else {
		c.w.Reset(dst)
	}
	if _, err := c.w.Write(src); err != nil {
		return err
	}
	return c.w.Close()
}

type gzipDecompressor struct{}

func (gzipDecompressor) Name() string { return "gzip" }

func (gzipDecompressor) Decompress(src []byte, limit int) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readLimited(r, src, limit)
}

// readLimited drains r up to limit bytes; one byte beyond the limit turns
// into a DecompressionLimitError carrying the wire size of src.
func readLimited(r io.Reader, src []byte, limit int) ([]byte, error) {
	var out bytes.Buffer
	if limit <= 0 {
		if _, err := io.Copy(&out, r); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	}
	n, err := io.Copy(&out, io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if n > int64(limit) {
		return nil, &DecompressionLimitError{CompressedSize: len(src)}
	}
	return out.Bytes(), nil
}
