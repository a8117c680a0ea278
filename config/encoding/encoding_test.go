package encoding_test

import (
	"testing"
	"time"

	"github.com/stratastream/stateful/config/encoding"
	"github.com/stratastream/stateful/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoding(t *testing.T) {
	t.Run("durations round trip through text", testDurationText)
	t.Run("log levels are parsed case insensitively", testLogLevelText)
	t.Run("byte sizes accept human readable units", testByteSizeText)
	t.Run("bool flags only accept true or false", testBoolFlag)
}

func testDurationText(t *testing.T) {
	var d encoding.Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Get())

	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(out))

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}

func testLogLevelText(t *testing.T) {
	var l encoding.LogLevel
	require.NoError(t, l.UnmarshalText([]byte("DEBUG")))
	assert.Equal(t, logging.DebugLevel, l.Get())

	require.NoError(t, l.UnmarshalFlag("warning"))
	assert.Equal(t, logging.WarnLevel, l.Get())

	out, err := l.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "warning", string(out))

	assert.Error(t, l.UnmarshalText([]byte("chatty")))
}

func testByteSizeText(t *testing.T) {
	var b encoding.ByteSize
	require.NoError(t, b.UnmarshalText([]byte("64MiB")))
	assert.Equal(t, uint64(64<<20), b.Get())

	require.NoError(t, b.UnmarshalText([]byte("100 MB")))
	assert.Equal(t, uint64(100_000_000), b.Get())

	out, err := encoding.ByteSize{Bytes: 1 << 30}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.0 GiB", string(out))

	assert.Error(t, b.UnmarshalText([]byte("lots")))
}

func testBoolFlag(t *testing.T) {
	var b encoding.Bool
	require.NoError(t, b.UnmarshalFlag("true"))
	assert.True(t, bool(b))
	require.NoError(t, b.UnmarshalFlag("false"))
	assert.False(t, bool(b))
	assert.Error(t, b.UnmarshalFlag("yes"))
}
