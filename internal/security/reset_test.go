package security

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResetToken(t *testing.T) {
	a, err := GenerateResetToken()
	require.NoError(t, err)
	b, err := GenerateResetToken()
	require.NoError(t, err)

	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b)

	_, err = hex.DecodeString(a)
	assert.NoError(t, err)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerateResetToken_SourceFailure(t *testing.T) {
	orig := resetTokenSource
	resetTokenSource = failingReader{}
	t.Cleanup(func() { resetTokenSource = orig })

	_, err := GenerateResetToken()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
}
