package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// ResetTokenBytes is the entropy of a reset token; hex encoding doubles its length.
const ResetTokenBytes = 20

var resetTokenSource io.Reader = rand.Reader

// GenerateResetToken returns a 40 character hex secret from crypto/rand.
func GenerateResetToken() (string, error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err := io.ReadFull(resetTokenSource, buf); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
