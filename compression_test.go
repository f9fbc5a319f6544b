package textsql

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compress(t *testing.T, compressionType CompressionType, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, cleanup, err := NewCompressionHandler(compressionType).CreateWriter(&buf)
	require.NoError(t, err)
	_, err = io.WriteString(w, data)
	require.NoError(t, err)
	require.NoError(t, cleanup())
	return buf.Bytes()
}

func TestCompressionHandler_RoundTrip(t *testing.T) {
	t.Parallel()

	const data = "a,b\n1,2\n3,4\n"
	for _, ct := range []CompressionType{CompressionNone, CompressionGZ, CompressionXZ, CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			t.Parallel()
			compressed := compress(t, ct, data)

			r, cleanup, err := NewCompressionHandler(ct).CreateReader(bytes.NewReader(compressed))
			require.NoError(t, err)
			defer cleanup() //nolint:errcheck

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, data, string(got))
		})
	}
}

func TestCompressionHandler_BZ2WriteUnsupported(t *testing.T) {
	t.Parallel()

	_, _, err := NewCompressionHandler(CompressionBZ2).CreateWriter(io.Discard)
	assert.Error(t, err)
}

func TestNewDecompressingReader_SniffsMagic(t *testing.T) {
	t.Parallel()

	const data = "x;y\n1;2\n"
	for _, ct := range []CompressionType{CompressionGZ, CompressionXZ, CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			t.Parallel()
			compressed := compress(t, ct, data)
			assert.Equal(t, ct, DetectCompressionByMagic(compressed))

			r, cleanup, err := NewDecompressingReader(bytes.NewReader(compressed), "")
			require.NoError(t, err)
			defer cleanup() //nolint:errcheck

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, data, string(got))
		})
	}

	t.Run("plain short input", func(t *testing.T) {
		t.Parallel()
		r, _, err := NewDecompressingReader(bytes.NewReader([]byte("a")), "data")
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "a", string(got))
	})
}

func TestDetectCompressionType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want CompressionType
	}{
		{"data.csv", CompressionNone},
		{"data.csv.gz", CompressionGZ},
		{"DATA.TSV.GZ", CompressionGZ},
		{"data.txt.bz2", CompressionBZ2},
		{"data.csv.xz", CompressionXZ},
		{"data.csv.zst", CompressionZSTD},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectCompressionType(tt.path))
		})
	}
}

func TestDetectCompressionByMagic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CompressionBZ2, DetectCompressionByMagic([]byte("BZh91AY")))
	assert.Equal(t, CompressionNone, DetectCompressionByMagic([]byte("a,b\n")))
	assert.Equal(t, CompressionNone, DetectCompressionByMagic(nil))
}

func TestRemoveCompressionExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "data.csv", RemoveCompressionExtension("data.csv.gz"))
	assert.Equal(t, "data.TSV", RemoveCompressionExtension("data.TSV.ZST"))
	assert.Equal(t, "data.csv", RemoveCompressionExtension("data.csv"))
}

func TestParseCompressionType(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]CompressionType{
		"":      CompressionNone,
		"none":  CompressionNone,
		"gzip":  CompressionGZ,
		"BZ2":   CompressionBZ2,
		"xz":    CompressionXZ,
		"zst":   CompressionZSTD,
		"zstd ": CompressionZSTD,
	} {
		got, err := ParseCompressionType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCompressionType("lz4")
	assert.Error(t, err)

	assert.Equal(t, ".zst", NewCompressionHandler(CompressionZSTD).Extension())
	assert.Equal(t, "", CompressionNone.Extension())
}
