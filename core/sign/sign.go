// Package sign provides detached ed25519 signatures for decision artifacts.
// Signatures live in a sidecar file next to the artifact so the artifact
// bytes stay exactly the canonical hash preimage.
package sign

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/davidahmann/warden/core/canon"
	"github.com/davidahmann/warden/core/fsx"
)

const AlgEd25519 = "ed25519"

// SidecarSuffix is appended to an artifact path to form its signature path.
const SidecarSuffix = ".sig.json"

type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// Signature is the detached signature envelope. SignedDigest carries the
// sha256 hex of the artifact's canonical bytes, which is what is signed.
type Signature struct {
	Alg          string `json:"alg"`
	KeyID        string `json:"key_id"`
	Sig          string `json:"sig"`
	SignedDigest string `json:"signed_digest"`
}

func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{Public: pub, Private: priv}, nil
}

// KeyID is the sha256 hex fingerprint of the raw public key.
func KeyID(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:])
}

// SignDigestHex signs a sha256 hex digest with the private key.
func SignDigestHex(priv ed25519.PrivateKey, digestHex string) (Signature, error) {
	digest, err := decodeDigestHex(digestHex)
	if err != nil {
		return Signature{}, err
	}
	raw := ed25519.Sign(priv, digest)
	return Signature{
		Alg:          AlgEd25519,
		KeyID:        KeyID(priv.Public().(ed25519.PublicKey)),
		Sig:          base64.StdEncoding.EncodeToString(raw),
		SignedDigest: digestHex,
	}, nil
}

// VerifyDigestHex checks the signature against its embedded digest.
func VerifyDigestHex(pub ed25519.PublicKey, sig Signature) (bool, error) {
	if sig.Alg != AlgEd25519 {
		return false, fmt.Errorf("unsupported alg: %s", sig.Alg)
	}
	if sig.KeyID != "" && sig.KeyID != KeyID(pub) {
		return false, fmt.Errorf("key id mismatch")
	}
	digest, err := decodeDigestHex(sig.SignedDigest)
	if err != nil {
		return false, err
	}
	raw, err := base64.StdEncoding.DecodeString(sig.Sig)
	if err != nil {
		return false, fmt.Errorf("decode sig: %w", err)
	}
	if len(raw) != ed25519.SignatureSize {
		return false, fmt.Errorf("invalid signature length: %d", len(raw))
	}
	return ed25519.Verify(pub, digest, raw), nil
}

// SignArtifactFile signs the canonical digest of the artifact at path and
// writes the sidecar next to it. Returns the sidecar path.
func SignArtifactFile(priv ed25519.PrivateKey, artifactPath string) (string, error) {
	// #nosec G304 -- artifact path is explicit local user input.
	content, err := os.ReadFile(artifactPath)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}
	digest, err := canon.DigestJSON(content)
	if err != nil {
		return "", fmt.Errorf("digest artifact: %w", err)
	}
	sig, err := SignDigestHex(priv, digest)
	if err != nil {
		return "", err
	}
	payload, err := canon.Canonicalize(sig)
	if err != nil {
		return "", err
	}
	sidecarPath := artifactPath + SidecarSuffix
	if err := fsx.WriteFileAtomic(sidecarPath, payload, 0o600); err != nil {
		return "", err
	}
	return sidecarPath, nil
}

// VerifyArtifactFile re-derives the artifact's canonical digest and checks
// it against the sidecar signature.
func VerifyArtifactFile(pub ed25519.PublicKey, artifactPath string) (bool, error) {
	// #nosec G304 -- artifact path is explicit local user input.
	content, err := os.ReadFile(artifactPath)
	if err != nil {
		return false, fmt.Errorf("read artifact: %w", err)
	}
	// #nosec G304 -- sidecar path is derived from the artifact path.
	sidecar, err := os.ReadFile(artifactPath + SidecarSuffix)
	if err != nil {
		return false, fmt.Errorf("read signature sidecar: %w", err)
	}
	var sig Signature
	if err := json.Unmarshal(sidecar, &sig); err != nil {
		return false, fmt.Errorf("decode signature sidecar: %w", err)
	}
	digest, err := canon.DigestJSON(content)
	if err != nil {
		return false, fmt.Errorf("digest artifact: %w", err)
	}
	if sig.SignedDigest != digest {
		return false, fmt.Errorf("signed_digest mismatch")
	}
	return VerifyDigestHex(pub, sig)
}

func decodeDigestHex(digestHex string) ([]byte, error) {
	if digestHex == "" {
		return nil, fmt.Errorf("missing signed_digest")
	}
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return nil, fmt.Errorf("decode digest: %w", err)
	}
	if len(digest) != sha256.Size {
		return nil, fmt.Errorf("invalid digest length: %d", len(digest))
	}
	return digest, nil
}
