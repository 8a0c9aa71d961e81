package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantLen int
	}{
		{"128-bit token", TokenSize128, 22},
		{"256-bit token", TokenSize256, 43},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.Len(t, token, tt.wantLen)

			token2, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, token, token2, "tokens should be unique")
		})
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp1a := FingerprintToken("access-1")
	fp1b := FingerprintToken("access-1")
	fp2 := FingerprintToken("access-2")

	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")
	require.NotEqual(t, fp1a, fp2)
	require.Len(t, fp1a, fingerprintLen)
	require.NotContains(t, fp1a, "access")
	require.Empty(t, FingerprintToken(""))
}

func TestEqualTokens(t *testing.T) {
	t.Parallel()

	require.True(t, EqualTokens("state-1", "state-1"))
	require.False(t, EqualTokens("state-1", "state-2"))
	require.False(t, EqualTokens("state-1", ""))
}
