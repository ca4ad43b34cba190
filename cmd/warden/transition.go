package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/davidahmann/warden/core/sign"
	"github.com/davidahmann/warden/core/transition"

	schemadecision "github.com/davidahmann/warden/core/schema/v1/decision"
)

type transitionEvalOutput struct {
	OK            bool     `json:"ok"`
	Outcome       string   `json:"outcome,omitempty"`
	Reasons       []string `json:"reasons,omitempty"`
	DecisionID    string   `json:"decision_id,omitempty"`
	ContextHash   string   `json:"context_hash,omitempty"`
	ContentHash   string   `json:"content_hash,omitempty"`
	ArtifactPath  string   `json:"artifact_path,omitempty"`
	SignaturePath string   `json:"signature_path,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func runTransition(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Resolve a proposed transition into an immutable decision record, either against a declared registry or under a time-bounded authority grant.")
	}
	if len(arguments) == 0 {
		printTransitionUsage()
		return exitInvalidInput
	}
	switch arguments[0] {
	case "eval":
		return runTransitionEval(arguments[1:])
	default:
		printTransitionUsage()
		return exitInvalidInput
	}
}

func runTransitionEval(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Evaluate one transition request plus authority context and emit the canonical decision record.")
	}
	flagSet := flag.NewFlagSet("transition-eval", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var registryPath string
	var requestPath string
	var contextPath string
	var windowStart string
	var windowEnd string
	var decisionTime string
	var outputDir string
	var signKeyPath string
	var signKeyEnv string
	var jsonOutput bool
	var helpFlag bool

	flagSet.StringVar(&registryPath, "registry", "", "path to transition registry yaml")
	flagSet.StringVar(&requestPath, "request", "", "path to transition request json")
	flagSet.StringVar(&contextPath, "context", "", "path to authority context json")
	flagSet.StringVar(&windowStart, "window-start", "", "authority window start (RFC3339)")
	flagSet.StringVar(&windowEnd, "window-end", "", "authority window end (RFC3339)")
	flagSet.StringVar(&decisionTime, "decision-time", "", "decision timestamp (RFC3339), required with a window")
	flagSet.StringVar(&outputDir, "output-dir", "", "directory for the decision artifact")
	flagSet.StringVar(&signKeyPath, "sign-key", "", "path to base64 private signing key")
	flagSet.StringVar(&signKeyEnv, "sign-key-env", "", "env var containing base64 private signing key")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeTransitionEvalOutput(jsonOutput, transitionEvalOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	if helpFlag {
		printTransitionEvalUsage()
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeTransitionEvalOutput(jsonOutput, transitionEvalOutput{OK: false, Error: "unexpected positional arguments"}, exitInvalidInput)
	}
	if requestPath == "" || contextPath == "" {
		return writeTransitionEvalOutput(jsonOutput, transitionEvalOutput{OK: false, Error: "both --request and --context are required"}, exitInvalidInput)
	}
	windowed := windowStart != "" || windowEnd != "" || decisionTime != ""
	if windowed && (windowStart == "" || windowEnd == "" || decisionTime == "") {
		return writeTransitionEvalOutput(jsonOutput, transitionEvalOutput{OK: false, Error: "windowed evaluation requires --window-start, --window-end, and --decision-time together"}, exitInvalidInput)
	}
	if !windowed && registryPath == "" {
		return writeTransitionEvalOutput(jsonOutput, transitionEvalOutput{OK: false, Error: "--registry is required unless a window is supplied"}, exitInvalidInput)
	}
	if (signKeyPath != "" || signKeyEnv != "") && outputDir == "" {
		return writeTransitionEvalOutput(jsonOutput, transitionEvalOutput{OK: false, Error: "--sign-key requires --output-dir"}, exitInvalidInput)
	}

	request, err := transition.LoadRequestFile(requestPath)
	if err != nil {
		return writeTransitionEvalOutput(jsonOutput, transitionEvalOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	authorityContext, err := transition.LoadContextFile(contextPath)
	if err != nil {
		return writeTransitionEvalOutput(jsonOutput, transitionEvalOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}

	var record schemadecision.DecisionRecord
	if windowed {
		record, err = transition.EvaluateBounded(request, authorityContext, transition.Window{Start: windowStart, End: windowEnd}, decisionTime)
	} else {
		var registry schemadecision.Registry
		registry, err = transition.LoadRegistryFile(registryPath)
		if err == nil {
			record, err = transition.Evaluate(request, authorityContext, registry)
		}
	}
	if err != nil {
		return writeTransitionEvalOutput(jsonOutput, transitionEvalOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}

	output := transitionEvalOutput{
		OK:          record.Outcome == schemadecision.OutcomeApproved,
		Outcome:     string(record.Outcome),
		Reasons:     record.Reasons,
		DecisionID:  record.DecisionID,
		ContextHash: record.ContextHash,
		ContentHash: record.ContentHash,
	}

	if outputDir != "" {
		artifactPath, writeErr := transition.WriteDecisionArtifact(record, outputDir)
		if writeErr != nil {
			output.OK = false
			output.Error = writeErr.Error()
			return writeTransitionEvalOutput(jsonOutput, output, exitCodeForError(writeErr, exitInternalFailure))
		}
		output.ArtifactPath = artifactPath

		if signKeyPath != "" || signKeyEnv != "" {
			keypair, warnings, keyErr := sign.LoadSigningKey(sign.KeyConfig{
				Mode:           sign.ModeProd,
				PrivateKeyPath: signKeyPath,
				PrivateKeyEnv:  signKeyEnv,
			})
			output.Warnings = warnings
			if keyErr != nil {
				output.OK = false
				output.Error = keyErr.Error()
				return writeTransitionEvalOutput(jsonOutput, output, exitCodeForError(keyErr, exitInvalidInput))
			}
			sidecarPath, signErr := sign.SignArtifactFile(keypair.Private, artifactPath)
			if signErr != nil {
				output.OK = false
				output.Error = signErr.Error()
				return writeTransitionEvalOutput(jsonOutput, output, exitCodeForError(signErr, exitInternalFailure))
			}
			output.SignaturePath = sidecarPath
		}
	}

	exitCode := exitOK
	if record.Outcome != schemadecision.OutcomeApproved {
		exitCode = exitPolicyBlocked
	}
	return writeTransitionEvalOutput(jsonOutput, output, exitCode)
}

func writeTransitionEvalOutput(jsonOutput bool, output transitionEvalOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if output.Error != "" {
		fmt.Printf("transition eval error: %s\n", output.Error)
		return exitCode
	}
	fmt.Printf("transition eval: outcome=%s reasons=%s decision_id=%s\n",
		output.Outcome, strings.Join(output.Reasons, ","), output.DecisionID)
	if output.ArtifactPath != "" {
		fmt.Printf("artifact: %s\n", output.ArtifactPath)
	}
	if output.SignaturePath != "" {
		fmt.Printf("signature: %s\n", output.SignaturePath)
	}
	return exitCode
}

func printTransitionUsage() {
	fmt.Println("Usage:")
	fmt.Println("  warden transition eval --registry <reg.yaml> --request <req.json> --context <ctx.json> [--output-dir DIR] [--sign-key <path>] [--json] [--explain]")
	fmt.Println("  warden transition eval --request <req.json> --context <ctx.json> --window-start <RFC3339> --window-end <RFC3339> --decision-time <RFC3339> [--output-dir DIR] [--json]")
}

func printTransitionEvalUsage() {
	printTransitionUsage()
}
