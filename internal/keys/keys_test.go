package keys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, err := Generate()
	require.NoError(t, err)

	data := []byte(`{"versionId":2,"fromVersionId":1}`)
	sig, err := Sign(priv, data)
	require.NoError(t, err)

	require.True(t, Verify(&priv.PublicKey, data, sig))
}

func TestVerifyRejectsTamperedBytes(t *testing.T) {
	priv, err := Generate()
	require.NoError(t, err)

	data := []byte("original bytes")
	sig, err := Sign(priv, data)
	require.NoError(t, err)

	require.False(t, Verify(&priv.PublicKey, []byte("original bytex"), sig))
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	priv, err := Generate()
	require.NoError(t, err)

	require.False(t, Verify(&priv.PublicKey, []byte("data"), "not-base64!!"))
	require.False(t, Verify(&priv.PublicKey, []byte("data"), "dGVzdA==")) // valid base64, wrong length
}

func TestPEMRoundTrip(t *testing.T) {
	priv, err := Generate()
	require.NoError(t, err)

	privPEM, err := EncodePrivateKeyPEM(priv)
	require.NoError(t, err)
	pubPEM, err := EncodePublicKeyPEM(&priv.PublicKey)
	require.NoError(t, err)

	parsedPriv, err := ParsePrivateKeyPEM(privPEM)
	require.NoError(t, err)
	parsedPub, err := ParsePublicKeyPEM(pubPEM)
	require.NoError(t, err)

	data := []byte("round trip")
	sig, err := Sign(parsedPriv, data)
	require.NoError(t, err)
	require.True(t, Verify(parsedPub, data, sig))
}

func TestParsePrivateKeyPEMRejectsGarbage(t *testing.T) {
	_, err := ParsePrivateKeyPEM([]byte("not a pem"))
	require.Error(t, err)
}
