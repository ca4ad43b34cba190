package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/davidahmann/warden/core/commitgate"
	"github.com/davidahmann/warden/core/drift"
)

type graphBuildOutput struct {
	OK              bool   `json:"ok"`
	Actors          int    `json:"actors,omitempty"`
	RulesetHash     string `json:"ruleset_hash,omitempty"`
	ArtefactVersion string `json:"artefact_version,omitempty"`
	ArtifactPath    string `json:"artifact_path,omitempty"`
	Error           string `json:"error,omitempty"`
}

func runGraph(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Build the authority reachability graph a ruleset's allowlist implies and persist it as a canonical artifact.")
	}
	if len(arguments) == 0 {
		printGraphUsage()
		return exitInvalidInput
	}
	switch arguments[0] {
	case "build":
		return runGraphBuild(arguments[1:])
	default:
		printGraphUsage()
		return exitInvalidInput
	}
}

func runGraphBuild(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Derive actor-to-action reachability from a ruleset allowlist and write authority_graph_<ruleset_hash>.json.")
	}
	flagSet := flag.NewFlagSet("graph-build", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var rulesetPath string
	var outputDir string
	var jsonOutput bool
	var helpFlag bool

	flagSet.StringVar(&rulesetPath, "ruleset", "", "path to ruleset json")
	flagSet.StringVar(&outputDir, "output-dir", ".", "directory for the graph artifact")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeGraphBuildOutput(jsonOutput, graphBuildOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	if helpFlag {
		printGraphUsage()
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeGraphBuildOutput(jsonOutput, graphBuildOutput{OK: false, Error: "unexpected positional arguments"}, exitInvalidInput)
	}
	if rulesetPath == "" {
		return writeGraphBuildOutput(jsonOutput, graphBuildOutput{OK: false, Error: "--ruleset is required"}, exitInvalidInput)
	}

	rules, err := commitgate.LoadRulesetFile(rulesetPath)
	if err != nil {
		return writeGraphBuildOutput(jsonOutput, graphBuildOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}

	graph := drift.BuildAuthorityGraph(rules)
	artifact, artifactPath, err := drift.WriteGraphArtifact(graph, rules, outputDir)
	if err != nil {
		return writeGraphBuildOutput(jsonOutput, graphBuildOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInternalFailure))
	}

	return writeGraphBuildOutput(jsonOutput, graphBuildOutput{
		OK:              true,
		Actors:          len(graph),
		RulesetHash:     artifact.RulesetHash,
		ArtefactVersion: artifact.ArtefactVersion,
		ArtifactPath:    artifactPath,
	}, exitOK)
}

func writeGraphBuildOutput(jsonOutput bool, output graphBuildOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if output.Error != "" {
		fmt.Printf("graph build error: %s\n", output.Error)
		return exitCode
	}
	fmt.Printf("graph build ok: actors=%d ruleset_hash=%s artifact=%s\n", output.Actors, output.RulesetHash, output.ArtifactPath)
	return exitCode
}

func printGraphUsage() {
	fmt.Println("Usage:")
	fmt.Println("  warden graph build --ruleset <rules.json> [--output-dir DIR] [--json] [--explain]")
}
