package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "github.com/goliatone/go-identity"
)

func TestPasswordSealerRoundTrip(t *testing.T) {
	sealer := newTestSealer(t)

	blob, err := sealer.Seal("Secret123")
	require.NoError(t, err)
	require.NotEmpty(t, blob)
	assert.NotContains(t, blob, "Secret123")

	plaintext, err := sealer.Unseal(blob)
	require.NoError(t, err)
	assert.Equal(t, "Secret123", plaintext)
}

func TestPasswordSealerNonDeterministicBlobs(t *testing.T) {
	sealer := newTestSealer(t)

	first, err := sealer.Seal("Secret123")
	require.NoError(t, err)
	second, err := sealer.Seal("Secret123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each seal uses a fresh nonce")
}

func TestPasswordSealerRejectsTamperedBlob(t *testing.T) {
	sealer := newTestSealer(t)

	blob, err := sealer.Seal("Secret123")
	require.NoError(t, err)

	tampered := []byte(blob)
	tampered[len(tampered)-1] ^= 'x'

	_, err = sealer.Unseal(string(tampered))
	require.Error(t, err)
}

func TestPasswordSealerRejectsGarbage(t *testing.T) {
	sealer := newTestSealer(t)

	_, err := sealer.Unseal("not-base64!!")
	require.Error(t, err)

	_, err = sealer.Unseal("c2hvcnQ")
	require.Error(t, err)
}

func TestPasswordSealerRejectsForeignKey(t *testing.T) {
	sealer := newTestSealer(t)
	other, err := identity.NewPasswordSealer("a different secret")
	require.NoError(t, err)

	blob, err := sealer.Seal("Secret123")
	require.NoError(t, err)

	_, err = other.Unseal(blob)
	require.Error(t, err)
}

func TestNewPasswordSealerRequiresSecret(t *testing.T) {
	_, err := identity.NewPasswordSealer("")
	require.Error(t, err)
}
