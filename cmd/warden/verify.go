package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/davidahmann/warden/core/sign"
)

type verifyOutput struct {
	OK           bool   `json:"ok"`
	ArtifactPath string `json:"artifact_path,omitempty"`
	KeyID        string `json:"key_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

func runVerify(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Verify a decision artifact's detached ed25519 signature against its canonical content hash.")
	}
	flagSet := flag.NewFlagSet("verify", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var artifactPath string
	var publicKeyPath string
	var publicKeyEnv string
	var jsonOutput bool
	var helpFlag bool

	flagSet.StringVar(&artifactPath, "artifact", "", "path to the decision artifact json")
	flagSet.StringVar(&publicKeyPath, "public-key", "", "path to base64 public key")
	flagSet.StringVar(&publicKeyEnv, "public-key-env", "", "env var containing base64 public key")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeVerifyOutput(jsonOutput, verifyOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	if helpFlag {
		printVerifyUsage()
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeVerifyOutput(jsonOutput, verifyOutput{OK: false, Error: "unexpected positional arguments"}, exitInvalidInput)
	}
	if artifactPath == "" {
		return writeVerifyOutput(jsonOutput, verifyOutput{OK: false, Error: "--artifact is required"}, exitInvalidInput)
	}

	publicKey, err := sign.LoadVerifyKey(sign.KeyConfig{
		PublicKeyPath: publicKeyPath,
		PublicKeyEnv:  publicKeyEnv,
	})
	if err != nil {
		return writeVerifyOutput(jsonOutput, verifyOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}

	valid, err := sign.VerifyArtifactFile(publicKey, artifactPath)
	if err != nil {
		return writeVerifyOutput(jsonOutput, verifyOutput{OK: false, ArtifactPath: artifactPath, Error: err.Error()}, exitVerifyFailed)
	}
	if !valid {
		return writeVerifyOutput(jsonOutput, verifyOutput{OK: false, ArtifactPath: artifactPath, Error: "signature verification failed"}, exitVerifyFailed)
	}
	return writeVerifyOutput(jsonOutput, verifyOutput{
		OK:           true,
		ArtifactPath: artifactPath,
		KeyID:        sign.KeyID(publicKey),
	}, exitOK)
}

func writeVerifyOutput(jsonOutput bool, output verifyOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if output.OK {
		fmt.Printf("verify ok: %s key_id=%s\n", output.ArtifactPath, output.KeyID)
		return exitCode
	}
	fmt.Printf("verify error: %s\n", output.Error)
	return exitCode
}

func printVerifyUsage() {
	fmt.Println("Usage:")
	fmt.Println("  warden verify --artifact <path> [--public-key <path>|--public-key-env <VAR>] [--json] [--explain]")
}
