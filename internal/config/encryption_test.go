package config

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEncryptionKey_HexAndBase64(t *testing.T) {
	hexKey := "00112233445566778899aabbccddeeff"
	key, err := DecodeEncryptionKey(hexKey)
	require.NoError(t, err)
	require.Len(t, key, 16)

	raw := []byte("0123456789abcdef0123456789abcdef")
	b64 := base64.StdEncoding.EncodeToString(raw)
	key, err = DecodeEncryptionKey(b64)
	require.NoError(t, err)
	require.Equal(t, raw, key)
}

func TestDecodeEncryptionKey_RejectsBadLength(t *testing.T) {
	_, err := DecodeEncryptionKey("abcd")
	require.Error(t, err)
}

func TestDecodeEncryptionKeysCSV_SkipsBlanks(t *testing.T) {
	keys, err := DecodeEncryptionKeysCSV(" 00112233445566778899aabbccddeeff, ,ffeeddccbbaa99887766554433221100")
	require.NoError(t, err)
	require.Len(t, keys, 2)
}

func TestTokenSigningKey(t *testing.T) {
	cfg := Config{JWTSecret: " s3cret "}
	key, err := cfg.TokenSigningKey()
	require.NoError(t, err)
	require.Equal(t, []byte("s3cret"), key)

	cfg = Config{EncryptionKey: "00112233445566778899aabbccddeeff,ffeeddccbbaa99887766554433221100"}
	derived, err := cfg.TokenSigningKey()
	require.NoError(t, err)
	require.Len(t, derived, 32)
	again, err := cfg.TokenSigningKey()
	require.NoError(t, err)
	require.Equal(t, derived, again)

	_, err = (&Config{}).TokenSigningKey()
	require.Error(t, err)
}
