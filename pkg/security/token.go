package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	inviteCodeBytes    = 8
	approvalTokenBytes = 24
)

// GenerateInviteCode produces the short shareable code attached to an invite.
// Codes are uppercase hex so they survive being read aloud or typed by hand.
func GenerateInviteCode() (string, error) {
	raw, err := randomHex(inviteCodeBytes)
	if err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	return strings.ToUpper(raw), nil
}

// GenerateApprovalToken produces the opaque token embedded in a parent
// approval link. Long enough that guessing is not a practical concern.
func GenerateApprovalToken() (string, error) {
	raw, err := randomHex(approvalTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate approval token: %w", err)
	}
	return raw, nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
