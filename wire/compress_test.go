package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressorRegistry(t *testing.T) {
	tests := []struct {
		name  string
		codec string
		want  bool
	}{
		{name: "identity registered", codec: "identity", want: true},
		{name: "deflate registered", codec: "deflate", want: true},
		{name: "gzip registered", codec: "gzip", want: true},
		{name: "unknown codec", codec: "snappy", want: false},
		{name: "empty name", codec: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCompressor(tt.codec)
			d := NewDecompressor(tt.codec)
			if tt.want {
				require.NotNil(t, c)
				require.NotNil(t, d)
				assert.Equal(t, tt.codec, c.Name())
				assert.Equal(t, tt.codec, d.Name())
			} else {
				assert.Nil(t, c)
				assert.Nil(t, d)
			}
		})
	}
}

type reverseCompressor struct{}

func (reverseCompressor) Name() string { return "reverse" }

func (reverseCompressor) Compress(dst io.Writer, src []byte) error {
	out := make([]byte, len(src))
	for i, b := range src {
		out[len(src)-1-i] = b
	}
	_, err := dst.Write(out)
	return err
}

type reverseDecompressor struct{}

func (reverseDecompressor) Name() string { return "reverse" }

func (reverseDecompressor) Decompress(src []byte, limit int) ([]byte, error) {
	if limit > 0 && len(src) > limit {
		return nil, &DecompressionLimitError{CompressedSize: len(src)}
	}
	out := make([]byte, len(src))
	for i, b := range src {
		out[len(src)-1-i] = b
	}
	return out, nil
}

func TestRegisterCustomCompressor(t *testing.T) {
	RegisterCompressor("reverse", func() Compressor { return reverseCompressor{} })
	RegisterDecompressor("reverse", func() Decompressor { return reverseDecompressor{} })

	c := NewCompressor("reverse")
	require.NotNil(t, c)

	var buf bytes.Buffer
	require.NoError(t, c.Compress(&buf, []byte("abc")))
	assert.Equal(t, []byte("cba"), buf.Bytes())

	d := NewDecompressor("reverse")
	require.NotNil(t, d)
	out, err := d.Decompress(buf.Bytes(), 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)
}

func TestDeflateRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("hermes transport payload "), 100)

	var buf bytes.Buffer
	c := NewCompressor("deflate")
	require.NoError(t, c.Compress(&buf, payload))
	assert.Less(t, buf.Len(), len(payload))

	out, err := NewDecompressor("deflate").Decompress(buf.Bytes(), 0)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestGzipRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("gateway frame body "), 100)

	var buf bytes.Buffer
	c := NewCompressor("gzip")
	require.NoError(t, c.Compress(&buf, payload))
	assert.Less(t, buf.Len(), len(payload))

	out, err := NewDecompressor("gzip").Decompress(buf.Bytes(), 0)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

// 同一个compressor实例必须能跨消息复用, 每条消息是独立的压缩流.
func TestCompressorReuse(t *testing.T) {
	for _, codec := range []string{"deflate", "gzip"} {
		t.Run(codec, func(t *testing.T) {
			c := NewCompressor(codec)
			d := NewDecompressor(codec)

			first := bytes.Repeat([]byte("first message "), 50)
			second := bytes.Repeat([]byte("second message, longer this time "), 50)

			var buf1 bytes.Buffer
			require.NoError(t, c.Compress(&buf1, first))

			var buf2 bytes.Buffer
			require.NoError(t, c.Compress(&buf2, second))

			out1, err := d.Decompress(buf1.Bytes(), 0)
			require.NoError(t, err)
			assert.Equal(t, first, out1)

			out2, err := d.Decompress(buf2.Bytes(), 0)
			require.NoError(t, err)
			assert.Equal(t, second, out2)
		})
	}
}

func TestIdentityPassthrough(t *testing.T) {
	payload := []byte("no compression applied")

	var buf bytes.Buffer
	require.NoError(t, NewCompressor("identity").Compress(&buf, payload))
	assert.Equal(t, payload, buf.Bytes())

	out, err := NewDecompressor("identity").Decompress(buf.Bytes(), 0)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestIdentityLimit(t *testing.T) {
	payload := bytes.Repeat([]byte{1}, 100)
	d := NewDecompressor("identity")

	out, err := d.Decompress(payload, 100)
	require.NoError(t, err)
	assert.Len(t, out, 100)

	_, err = d.Decompress(payload, 99)
	var limitErr *DecompressionLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 100, limitErr.CompressedSize)
}

// 解压上限边界: 恰好等于limit通过, 超出一个字节报错.
func TestDecompressionLimitBoundary(t *testing.T) {
	payload := bytes.Repeat([]byte{0x55}, 256)

	var buf bytes.Buffer
	require.NoError(t, NewCompressor("deflate").Compress(&buf, payload))
	d := NewDecompressor("deflate")

	out, err := d.Decompress(buf.Bytes(), len(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, out)

	_, err = d.Decompress(buf.Bytes(), len(payload)-1)
	require.Error(t, err)

	var limitErr *DecompressionLimitError
	require.ErrorAs(t, err, &limitErr)
	// 错误报告的是线上压缩大小, 不是解压后大小
	assert.Equal(t, buf.Len(), limitErr.CompressedSize)
}

func TestDecompressCorruptInput(t *testing.T) {
	_, err := NewDecompressor("deflate").Decompress([]byte("not a zlib stream"), 0)
	require.Error(t, err)

	var limitErr *DecompressionLimitError
	assert.False(t, errors.As(err, &limitErr))
}

func TestDecompressionLimitErrorMessage(t *testing.T) {
	err := &DecompressionLimitError{CompressedSize: 742}
	assert.Contains(t, err.Error(), "742")
}

// BenchmarkDeflateCompress 基准测试deflate压缩
func BenchmarkDeflateCompress(b *testing.B) {
	payload := bytes.Repeat([]byte("benchmark payload data "), 100)
	c := NewCompressor("deflate")

	var buf bytes.Buffer
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := c.Compress(&buf, payload); err != nil {
			b.Fatal(err)
		}
	}
}
