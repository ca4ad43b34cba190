// Package canon provides the canonical byte serialization and content
// hashing used by every decision artifact. Canonical form is RFC 8785 (JCS):
// UTF-8, object keys sorted lexicographically at every nesting level, no
// insignificant whitespace. Arrays keep caller order; order-sensitive lists
// (reason codes, edge lists) must be pre-sorted by the caller.
package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

// decisionNamespace is the fixed UUIDv5 namespace for decision identifiers.
// It reuses the well-known DNS namespace as a stable seed value.
var decisionNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Canonicalize marshals value and returns its RFC 8785 canonical bytes.
// Struct types enumerate their fields explicitly, so host-language map
// iteration order can never leak into the output.
func Canonicalize(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal for canonicalization: %w", err)
	}
	return CanonicalizeJSON(raw)
}

// CanonicalizeJSON returns the RFC 8785 canonical form of JSON input.
func CanonicalizeJSON(input []byte) ([]byte, error) {
	return jcs.Transform(input)
}

// Digest canonicalizes value and returns the lowercase sha256 hex digest.
func Digest(value any) (string, error) {
	canonical, err := Canonicalize(value)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// DigestJSON canonicalizes JSON input and returns a sha256 hex digest.
func DigestJSON(input []byte) (string, error) {
	canonical, err := CanonicalizeJSON(input)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// DeriveDecisionID returns the UUIDv5 of contextHash under the fixed decision
// namespace. The mapping is 1:1 with contextHash, so no uniqueness registry
// is needed. An empty contextHash yields an empty id.
func DeriveDecisionID(contextHash string) string {
	if contextHash == "" {
		return ""
	}
	return uuid.NewSHA1(decisionNamespace, []byte(contextHash)).String()
}
