package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/davidahmann/warden/core/canon"
	"github.com/davidahmann/warden/core/commitgate"

	schemaruleset "github.com/davidahmann/warden/core/schema/v1/ruleset"
)

type commitEvalOutput struct {
	OK              bool     `json:"ok"`
	Verdict         string   `json:"verdict,omitempty"`
	Reasons         []string `json:"reasons,omitempty"`
	RequestHash     string   `json:"request_hash,omitempty"`
	DecisionHash    string   `json:"decision_hash,omitempty"`
	ArtefactVersion string   `json:"artefact_version,omitempty"`
	ArtifactPath    string   `json:"artifact_path,omitempty"`
	Error           string   `json:"error,omitempty"`
}

func runCommit(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Resolve a commit request against deny, allow, and escalation rule lists; the default verdict is REFUSE.")
	}
	if len(arguments) == 0 {
		printCommitUsage()
		return exitInvalidInput
	}
	switch arguments[0] {
	case "eval":
		return runCommitEval(arguments[1:])
	default:
		printCommitUsage()
		return exitInvalidInput
	}
}

func runCommitEval(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Evaluate one commit request and emit the canonical verdict with request and decision hashes.")
	}
	flagSet := flag.NewFlagSet("commit-eval", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var rulesetPath string
	var requestPath string
	var outputDir string
	var jsonOutput bool
	var helpFlag bool

	flagSet.StringVar(&rulesetPath, "ruleset", "", "path to ruleset json")
	flagSet.StringVar(&requestPath, "request", "", "path to commit request json")
	flagSet.StringVar(&outputDir, "output-dir", "", "directory for the verdict artifact")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeCommitEvalOutput(jsonOutput, commitEvalOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	if helpFlag {
		printCommitUsage()
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeCommitEvalOutput(jsonOutput, commitEvalOutput{OK: false, Error: "unexpected positional arguments"}, exitInvalidInput)
	}
	if rulesetPath == "" || requestPath == "" {
		return writeCommitEvalOutput(jsonOutput, commitEvalOutput{OK: false, Error: "both --ruleset and --request are required"}, exitInvalidInput)
	}

	rules, err := commitgate.LoadRulesetFile(rulesetPath)
	if err != nil {
		return writeCommitEvalOutput(jsonOutput, commitEvalOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	request, err := commitgate.LoadRequestFile(requestPath)
	if err != nil {
		return writeCommitEvalOutput(jsonOutput, commitEvalOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}

	verdict, err := commitgate.Evaluate(request, rules)
	if err != nil {
		return writeCommitEvalOutput(jsonOutput, commitEvalOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInternalFailure))
	}

	output := commitEvalOutput{
		OK:              verdict.Verdict == schemaruleset.VerdictAllow,
		Verdict:         string(verdict.Verdict),
		Reasons:         verdict.Reasons,
		RequestHash:     verdict.RequestHash,
		DecisionHash:    verdict.DecisionHash,
		ArtefactVersion: verdict.ArtefactVersion,
	}

	if outputDir != "" {
		artifactPath, writeErr := commitgate.WriteDecisionArtifact(verdict, outputDir)
		if writeErr != nil {
			output.OK = false
			output.Error = writeErr.Error()
			return writeCommitEvalOutput(jsonOutput, output, exitCodeForError(writeErr, exitInternalFailure))
		}
		output.ArtifactPath = artifactPath
	}

	exitCode := exitOK
	if verdict.Verdict != schemaruleset.VerdictAllow {
		exitCode = exitPolicyBlocked
	}
	return writeCommitEvalOutput(jsonOutput, output, exitCode)
}

func writeCommitEvalOutput(jsonOutput bool, output commitEvalOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if output.Error != "" {
		fmt.Printf("commit eval error: %s\n", output.Error)
		return exitCode
	}
	// Non-JSON mode prints the canonical verdict so stdout matches the
	// artifact bytes.
	verdict := schemaruleset.CommitVerdict{
		Verdict:         schemaruleset.Verdict(output.Verdict),
		Reasons:         output.Reasons,
		DecisionHash:    output.DecisionHash,
		RequestHash:     output.RequestHash,
		ArtefactVersion: output.ArtefactVersion,
	}
	canonical, err := canon.Canonicalize(verdict)
	if err != nil {
		fmt.Printf("commit eval: verdict=%s reasons=%s\n", output.Verdict, strings.Join(output.Reasons, ","))
		return exitCode
	}
	fmt.Println(string(canonical))
	return exitCode
}

func printCommitUsage() {
	fmt.Println("Usage:")
	fmt.Println("  warden commit eval --ruleset <rules.json> --request <req.json> [--output-dir DIR] [--json] [--explain]")
}
