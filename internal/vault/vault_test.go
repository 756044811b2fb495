package vault

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestAESVaultRoundTrip(t *testing.T) {
	v, err := NewAES(testKey(0x42))
	require.NoError(t, err)

	fields := map[string]string{
		"clientId":     "ck_test_abcdefgh",
		"clientSecret": "cs_test_abcdefgh",
	}

	blob, err := v.Encrypt(fields)
	require.NoError(t, err)

	got, err := v.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, fields, got)
}

func TestAESVaultNonceVaries(t *testing.T) {
	v, err := NewAES(testKey(0x42))
	require.NoError(t, err)

	fields := map[string]string{"accessToken": "sq-access-token"}

	first, err := v.Encrypt(fields)
	require.NoError(t, err)
	second, err := v.Encrypt(fields)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestAESVaultRejectsBadKeySize(t *testing.T) {
	_, err := NewAES(bytes.Repeat([]byte{1}, 16))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestAESVaultWrongKeyFailsAuthentication(t *testing.T) {
	sealer, err := NewAES(testKey(0x01))
	require.NoError(t, err)
	opener, err := NewAES(testKey(0x02))
	require.NoError(t, err)

	blob, err := sealer.Encrypt(map[string]string{"clientId": "x"})
	require.NoError(t, err)

	_, err = opener.Decrypt(blob)
	require.Error(t, err)
}

func TestAESVaultRejectsMalformedBlobs(t *testing.T) {
	v, err := NewAES(testKey(0x42))
	require.NoError(t, err)

	_, err = v.Decrypt([]byte("!!! not base64 !!!"))
	assert.Error(t, err)

	_, err = v.Decrypt([]byte("c2hvcnQ=")) // shorter than a nonce
	assert.Error(t, err)
}

func TestStaticAndFailingHelpers(t *testing.T) {
	fields, err := Static{"clientId": "x"}.Decrypt(nil)
	require.NoError(t, err)
	assert.Equal(t, "x", fields["clientId"])

	_, err = Failing{}.Decrypt(nil)
	assert.Error(t, err)
}
