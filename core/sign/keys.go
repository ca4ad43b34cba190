package sign

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidahmann/warden/core/fsx"
)

type KeyMode string

const (
	ModeDev  KeyMode = "dev"
	ModeProd KeyMode = "prod"
)

const DevKeyWarning = "dev mode: ephemeral keypair generated; signatures will not verify across machines"

// Default filenames written by InitKeyFiles.
const (
	PrivateKeyFilename = "warden_signing.key"
	PublicKeyFilename  = "warden_signing.pub"
)

// KeyConfig selects a signing or verify key source. Path and env sources
// are mutually exclusive per key.
type KeyConfig struct {
	Mode           KeyMode
	PrivateKeyPath string
	PublicKeyPath  string
	PrivateKeyEnv  string
	PublicKeyEnv   string
}

// LoadSigningKey resolves a signing keypair. Dev mode generates an
// ephemeral keypair and returns a warning; prod mode requires an explicit
// private key source.
func LoadSigningKey(cfg KeyConfig) (KeyPair, []string, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeProd
	}
	switch mode {
	case ModeDev:
		if cfg.hasPrivateSource() || cfg.hasPublicSource() {
			return KeyPair{}, nil, fmt.Errorf("dev mode does not accept explicit key sources")
		}
		kp, err := GenerateKeyPair()
		if err != nil {
			return KeyPair{}, nil, err
		}
		return kp, []string{DevKeyWarning}, nil
	case ModeProd:
		if !cfg.hasPrivateSource() {
			return KeyPair{}, nil, fmt.Errorf("prod mode requires a private key source")
		}
		priv, err := loadPrivateKey(cfg)
		if err != nil {
			return KeyPair{}, nil, err
		}
		pub := priv.Public().(ed25519.PublicKey)
		if cfg.hasPublicSource() {
			loaded, err := loadPublicKey(cfg)
			if err != nil {
				return KeyPair{}, nil, err
			}
			if !loaded.Equal(pub) {
				return KeyPair{}, nil, fmt.Errorf("public key does not match private key")
			}
			pub = loaded
		}
		return KeyPair{Public: pub, Private: priv}, nil, nil
	default:
		return KeyPair{}, nil, fmt.Errorf("unsupported key mode: %q", cfg.Mode)
	}
}

// LoadVerifyKey resolves a public key for verification, deriving it from
// the private key when only that is configured.
func LoadVerifyKey(cfg KeyConfig) (ed25519.PublicKey, error) {
	if cfg.hasPublicSource() {
		return loadPublicKey(cfg)
	}
	if cfg.hasPrivateSource() {
		priv, err := loadPrivateKey(cfg)
		if err != nil {
			return nil, err
		}
		return priv.Public().(ed25519.PublicKey), nil
	}
	return nil, fmt.Errorf("public key not configured")
}

// InitKeyFiles generates a keypair and writes base64-encoded key files into
// dir. Returns the key id of the new pair. Fails if either file exists.
func InitKeyFiles(dir string) (string, error) {
	if err := fsx.EnsureDir(dir); err != nil {
		return "", err
	}
	privPath := filepath.Join(dir, PrivateKeyFilename)
	pubPath := filepath.Join(dir, PublicKeyFilename)
	for _, path := range []string{privPath, pubPath} {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("key file already exists: %s", path)
		}
	}
	kp, err := GenerateKeyPair()
	if err != nil {
		return "", err
	}
	privEncoded := base64.StdEncoding.EncodeToString(kp.Private)
	pubEncoded := base64.StdEncoding.EncodeToString(kp.Public)
	if err := fsx.WriteFileAtomic(privPath, []byte(privEncoded+"\n"), 0o600); err != nil {
		return "", err
	}
	if err := fsx.WriteFileAtomic(pubPath, []byte(pubEncoded+"\n"), 0o600); err != nil {
		return "", err
	}
	return KeyID(kp.Public), nil
}

func (cfg KeyConfig) hasPrivateSource() bool {
	return cfg.PrivateKeyPath != "" || cfg.PrivateKeyEnv != ""
}

func (cfg KeyConfig) hasPublicSource() bool {
	return cfg.PublicKeyPath != "" || cfg.PublicKeyEnv != ""
}

func loadPrivateKey(cfg KeyConfig) (ed25519.PrivateKey, error) {
	if cfg.PrivateKeyPath != "" && cfg.PrivateKeyEnv != "" {
		return nil, fmt.Errorf("private key source: set either path or env")
	}
	if cfg.PrivateKeyPath != "" {
		// #nosec G304 -- caller supplies local key path by design
		b, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		return parsePrivateKeyBase64(strings.TrimSpace(string(b)))
	}
	if cfg.PrivateKeyEnv != "" {
		encoded, ok := readEnvValue(cfg.PrivateKeyEnv)
		if !ok {
			return nil, fmt.Errorf("private key env not set: %s", cfg.PrivateKeyEnv)
		}
		return parsePrivateKeyBase64(encoded)
	}
	return nil, fmt.Errorf("private key not configured")
}

func loadPublicKey(cfg KeyConfig) (ed25519.PublicKey, error) {
	if cfg.PublicKeyPath != "" && cfg.PublicKeyEnv != "" {
		return nil, fmt.Errorf("public key source: set either path or env")
	}
	if cfg.PublicKeyPath != "" {
		// #nosec G304 -- caller supplies local key path by design
		b, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		return parsePublicKeyBase64(strings.TrimSpace(string(b)))
	}
	if cfg.PublicKeyEnv != "" {
		encoded, ok := readEnvValue(cfg.PublicKeyEnv)
		if !ok {
			return nil, fmt.Errorf("public key env not set: %s", cfg.PublicKeyEnv)
		}
		return parsePublicKeyBase64(encoded)
	}
	return nil, fmt.Errorf("public key not configured")
}

func parsePrivateKeyBase64(encoded string) (ed25519.PrivateKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if l := len(raw); l != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length: %d", l)
	}
	return ed25519.PrivateKey(raw), nil
}

func parsePublicKeyBase64(encoded string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if l := len(raw); l != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid public key length: %d", l)
	}
	return ed25519.PublicKey(raw), nil
}

func readEnvValue(name string) (string, bool) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return "", false
	}
	return val, true
}
