package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidahmann/warden/core/fsx"
	"github.com/davidahmann/warden/core/sign"
)

type keysInitOutput struct {
	OK             bool   `json:"ok"`
	Prefix         string `json:"prefix,omitempty"`
	KeyID          string `json:"key_id,omitempty"`
	PublicKeyPath  string `json:"public_key_path,omitempty"`
	PrivateKeyPath string `json:"private_key_path,omitempty"`
	Error          string `json:"error,omitempty"`
}

func runKeys(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Manage local ed25519 signing keys for decision artifact signatures.")
	}
	if len(arguments) == 0 {
		printKeysUsage()
		return exitInvalidInput
	}
	if arguments[0] == "--help" || arguments[0] == "-h" {
		printKeysUsage()
		return exitOK
	}
	switch arguments[0] {
	case "init":
		return runKeysInit(arguments[1:])
	default:
		printKeysUsage()
		return exitInvalidInput
	}
}

func runKeysInit(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Generate a new ed25519 keypair and write base64-encoded key files to disk.")
	}
	arguments = reorderInterspersedFlags(arguments, map[string]bool{
		"out-dir": true,
		"prefix":  true,
	})

	flagSet := flag.NewFlagSet("keys-init", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var outDir string
	var prefix string
	var force bool
	var jsonOutput bool
	var helpFlag bool

	flagSet.StringVar(&outDir, "out-dir", filepath.Join("warden-out", "keys"), "directory for generated key files")
	flagSet.StringVar(&prefix, "prefix", "warden", "key file prefix")
	flagSet.BoolVar(&force, "force", false, "overwrite existing key files")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeKeysInitOutput(jsonOutput, keysInitOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	if helpFlag {
		printKeysUsage()
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeKeysInitOutput(jsonOutput, keysInitOutput{OK: false, Error: "unexpected positional arguments"}, exitInvalidInput)
	}

	result, err := createSigningKeypair(outDir, prefix, force)
	if err != nil {
		return writeKeysInitOutput(jsonOutput, keysInitOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	return writeKeysInitOutput(jsonOutput, result, exitOK)
}

func createSigningKeypair(outDir string, prefix string, force bool) (keysInitOutput, error) {
	trimmedOutDir := strings.TrimSpace(outDir)
	if trimmedOutDir == "" {
		return keysInitOutput{}, fmt.Errorf("out-dir must not be empty")
	}
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		return keysInitOutput{}, fmt.Errorf("prefix must not be empty")
	}

	if err := fsx.EnsureDir(trimmedOutDir); err != nil {
		return keysInitOutput{}, err
	}

	privatePath := filepath.Join(trimmedOutDir, trimmedPrefix+"_private.key")
	publicPath := filepath.Join(trimmedOutDir, trimmedPrefix+"_public.key")
	if !force {
		if _, err := os.Stat(privatePath); err == nil {
			return keysInitOutput{}, fmt.Errorf("private key path already exists (use --force): %s", privatePath)
		}
		if _, err := os.Stat(publicPath); err == nil {
			return keysInitOutput{}, fmt.Errorf("public key path already exists (use --force): %s", publicPath)
		}
	}

	kp, err := sign.GenerateKeyPair()
	if err != nil {
		return keysInitOutput{}, fmt.Errorf("generate keypair: %w", err)
	}
	privateEncoded := base64.StdEncoding.EncodeToString(kp.Private)
	publicEncoded := base64.StdEncoding.EncodeToString(kp.Public)

	if err := fsx.WriteFileAtomic(privatePath, []byte(privateEncoded+"\n"), 0o600); err != nil {
		return keysInitOutput{}, fmt.Errorf("write private key: %w", err)
	}
	if err := fsx.WriteFileAtomic(publicPath, []byte(publicEncoded+"\n"), 0o600); err != nil {
		return keysInitOutput{}, fmt.Errorf("write public key: %w", err)
	}

	return keysInitOutput{
		OK:             true,
		Prefix:         trimmedPrefix,
		KeyID:          sign.KeyID(kp.Public),
		PublicKeyPath:  publicPath,
		PrivateKeyPath: privatePath,
	}, nil
}

func writeKeysInitOutput(jsonOutput bool, output keysInitOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if output.OK {
		fmt.Printf("keys init ok: key_id=%s public=%s private=%s\n", output.KeyID, output.PublicKeyPath, output.PrivateKeyPath)
		return exitCode
	}
	fmt.Printf("keys init error: %s\n", output.Error)
	return exitCode
}

func printKeysUsage() {
	fmt.Println("Usage:")
	fmt.Println("  warden keys init [--out-dir warden-out/keys] [--prefix warden] [--force] [--json] [--explain]")
}
