package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainExports separates export fingerprints from any other hash input.
const DomainExports = "tryinstall/exports/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ExportsFingerprint identifies an ordered capability list. Two sessions that
// ended with the same exports in the same order share a fingerprint, which
// lets the history command group equivalent outcomes.
func ExportsFingerprint(caps []Capability) (string, error) {
	canonical, err := MarshalCanonical(caps)
	if err != nil {
		return "", fmt.Errorf("ExportsFingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainExports, canonical), nil
}
