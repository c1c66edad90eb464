package password

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSalt_LengthAndEncoding(t *testing.T) {
	t.Parallel()

	salt := GenerateSalt()
	require.Len(t, salt, saltLength*2)

	_, err := hex.DecodeString(salt)
	require.NoError(t, err)
}

func TestGenerateSalt_Distinct(t *testing.T) {
	t.Parallel()

	require.NotEqual(t, GenerateSalt(), GenerateSalt())
}

func TestHash_Deterministic(t *testing.T) {
	t.Parallel()

	salt := GenerateSalt()

	first := Hash("secret1", salt)
	second := Hash("secret1", salt)
	require.Equal(t, first, second)
	require.Len(t, first, hashKeyLength*2)
}

func TestHash_DependsOnSaltAndPassword(t *testing.T) {
	t.Parallel()

	salt := GenerateSalt()
	other := GenerateSalt()

	require.NotEqual(t, Hash("secret1", salt), Hash("secret1", other))
	require.NotEqual(t, Hash("secret1", salt), Hash("secret2", salt))
}

func TestVerify(t *testing.T) {
	t.Parallel()

	salt := GenerateSalt()
	hash := Hash("secret1", salt)

	require.True(t, Verify("secret1", salt, hash))
	require.False(t, Verify("secret2", salt, hash))
	require.False(t, Verify("secret1", GenerateSalt(), hash))
}
