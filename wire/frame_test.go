package wire

import (
	"bytes"
	"testing"
)

func TestFrameConstants(t *testing.T) {
	if FrameHeaderSize != 5 {
		t.Errorf("FrameHeaderSize = %v, want %v", FrameHeaderSize, 5)
	}
	if CoalesceThreshold != 16379 {
		t.Errorf("CoalesceThreshold = %v, want %v", CoalesceThreshold, 16379)
	}
}

func TestEncodeFrameHeader(t *testing.T) {
	tests := []struct {
		name string
		hdr  FrameHeader
		want []byte
	}{
		{
			name: "uncompressed",
			hdr:  FrameHeader{Compressed: false, Length: 60},
			want: []byte{0x00, 0x00, 0x00, 0x00, 0x3C},
		},
		{
			name: "compressed",
			hdr:  FrameHeader{Compressed: true, Length: 0x01020304},
			want: []byte{0x01, 0x01, 0x02, 0x03, 0x04},
		},
		{
			name: "zero length",
			hdr:  FrameHeader{},
			want: []byte{0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "max length",
			hdr:  FrameHeader{Length: 0xFFFFFFFF},
			want: []byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeFrameHeader(tt.hdr)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeFrameHeader() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeFrameHeader(t *testing.T) {
	tests := []struct {
		name        string
		buf         []byte
		wantHdr     FrameHeader
		wantErr     bool
		errContains string
	}{
		{
			name:    "uncompressed",
			buf:     []byte{0x00, 0x00, 0x00, 0x4E, 0x20},
			wantHdr: FrameHeader{Compressed: false, Length: 20000},
		},
		{
			name:    "compressed",
			buf:     []byte{0x01, 0x00, 0x00, 0x00, 0x0A},
			wantHdr: FrameHeader{Compressed: true, Length: 10},
		},
		{
			name:    "extra trailing bytes ignored",
			buf:     []byte{0x00, 0x00, 0x00, 0x00, 0x01, 0xAB, 0xCD},
			wantHdr: FrameHeader{Length: 1},
		},
		{
			name:        "buffer too small",
			buf:         []byte{0x00, 0x00, 0x00, 0x01},
			wantErr:     true,
			errContains: "buff too small",
		},
		{
			name:        "empty buffer",
			buf:         []byte{},
			wantErr:     true,
			errContains: "buff too small",
		},
		{
			name:        "invalid compression flag",
			buf:         []byte{0x02, 0x00, 0x00, 0x00, 0x01},
			wantErr:     true,
			errContains: "invalid compression flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFrameHeader(tt.buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeFrameHeader() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if tt.errContains != "" && !bytes.Contains([]byte(err.Error()), []byte(tt.errContains)) {
					t.Errorf("DecodeFrameHeader() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if got != tt.wantHdr {
				t.Errorf("DecodeFrameHeader() = %+v, want %+v", got, tt.wantHdr)
			}
		})
	}
}

func TestFrameHeaderRoundTrip(t *testing.T) {
	testCases := []struct {
		name     string
		original FrameHeader
	}{
		{name: "small payload", original: FrameHeader{Length: 64}},
		{name: "compressed payload", original: FrameHeader{Compressed: true, Length: 4096}},
		{name: "empty payload", original: FrameHeader{Length: 0}},
		{name: "threshold payload", original: FrameHeader{Length: CoalesceThreshold}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// 编码
			encoded := EncodeFrameHeader(tc.original)

			// 解码
			decoded, err := DecodeFrameHeader(encoded)
			if err != nil {
				t.Fatalf("DecodeFrameHeader() unexpected error = %v", err)
			}

			// 验证
			if decoded != tc.original {
				t.Errorf("Round trip mismatch: got %+v, want %+v", decoded, tc.original)
			}
		})
	}
}

func TestPutFrameHeaderPatchesInPlace(t *testing.T) {
	buf := make([]byte, FrameHeaderSize+3)
	PutFrameHeader(buf, FrameHeader{Compressed: true, Length: 258})

	want := []byte{0x01, 0x00, 0x00, 0x01, 0x02}
	if !bytes.Equal(buf[:FrameHeaderSize], want) {
		t.Errorf("PutFrameHeader() wrote %v, want %v", buf[:FrameHeaderSize], want)
	}
	// 不得越界写
	if buf[5] != 0 || buf[6] != 0 || buf[7] != 0 {
		t.Errorf("PutFrameHeader() wrote past the header: %v", buf)
	}
}

// BenchmarkEncodeFrameHeader 基准测试帧头编码性能
func BenchmarkEncodeFrameHeader(b *testing.B) {
	hdr := FrameHeader{Compressed: false, Length: 1024}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = EncodeFrameHeader(hdr)
	}
}

// BenchmarkDecodeFrameHeader 基准测试帧头解码性能
func BenchmarkDecodeFrameHeader(b *testing.B) {
	buf := EncodeFrameHeader(FrameHeader{Compressed: true, Length: 1024})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DecodeFrameHeader(buf)
	}
}
