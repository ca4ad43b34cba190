package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/davidahmann/warden/core/commitgate"
	"github.com/davidahmann/warden/core/drift"

	schemaruleset "github.com/davidahmann/warden/core/schema/v1/ruleset"
)

type driftDetectOutput struct {
	OK           bool                 `json:"ok"`
	Pass         bool                 `json:"pass"`
	Reason       string               `json:"reason,omitempty"`
	AddedEdges   []schemaruleset.Edge `json:"added_edges,omitempty"`
	RemovedEdges []schemaruleset.Edge `json:"removed_edges,omitempty"`
	Error        string               `json:"error,omitempty"`
}

func runDrift(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Detect authority reachability expansion between a baseline graph and the graph the current ruleset implies.")
	}
	if len(arguments) == 0 {
		printDriftUsage()
		return exitInvalidInput
	}
	switch arguments[0] {
	case "detect":
		return runDriftDetect(arguments[1:])
	default:
		printDriftUsage()
		return exitInvalidInput
	}
}

func runDriftDetect(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Diff baseline and current authority graphs; expansion passes only with a revised invariant hash plus explicit acknowledgement.")
	}
	flagSet := flag.NewFlagSet("drift-detect", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var baselinePath string
	var rulesetPath string
	var invariantHash string
	var currentInvariantHash string
	var acknowledgeExpansion bool
	var jsonOutput bool
	var helpFlag bool

	flagSet.StringVar(&baselinePath, "baseline", "", "path to baseline authority graph json")
	flagSet.StringVar(&rulesetPath, "ruleset", "", "path to current ruleset json")
	flagSet.StringVar(&invariantHash, "invariant-hash", "", "baseline contract invariant hash")
	flagSet.StringVar(&currentInvariantHash, "current-invariant-hash", "", "current contract invariant hash (defaults to --invariant-hash)")
	flagSet.BoolVar(&acknowledgeExpansion, "acknowledge-expansion", false, "explicitly accept a reachability expansion")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeDriftDetectOutput(jsonOutput, driftDetectOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	if helpFlag {
		printDriftUsage()
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeDriftDetectOutput(jsonOutput, driftDetectOutput{OK: false, Error: "unexpected positional arguments"}, exitInvalidInput)
	}
	if baselinePath == "" || rulesetPath == "" || invariantHash == "" {
		return writeDriftDetectOutput(jsonOutput, driftDetectOutput{OK: false, Error: "--baseline, --ruleset, and --invariant-hash are required"}, exitInvalidInput)
	}
	if currentInvariantHash == "" {
		currentInvariantHash = invariantHash
	}

	baseline, err := drift.LoadGraphFile(baselinePath)
	if err != nil {
		return writeDriftDetectOutput(jsonOutput, driftDetectOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	rules, err := commitgate.LoadRulesetFile(rulesetPath)
	if err != nil {
		return writeDriftDetectOutput(jsonOutput, driftDetectOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}

	current := drift.BuildAuthorityGraph(rules)
	result := drift.Detect(baseline, current, invariantHash, currentInvariantHash, acknowledgeExpansion)

	output := driftDetectOutput{
		OK:           result.Pass,
		Pass:         result.Pass,
		Reason:       string(result.Reason),
		AddedEdges:   result.AddedEdges,
		RemovedEdges: result.RemovedEdges,
	}
	exitCode := exitOK
	if !result.Pass {
		exitCode = exitDriftFailed
	}
	return writeDriftDetectOutput(jsonOutput, output, exitCode)
}

func writeDriftDetectOutput(jsonOutput bool, output driftDetectOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if output.Error != "" {
		fmt.Printf("drift detect error: %s\n", output.Error)
		return exitCode
	}
	fmt.Printf("drift detect: pass=%t reason=%s added=%d removed=%d\n",
		output.Pass, output.Reason, len(output.AddedEdges), len(output.RemovedEdges))
	for _, edge := range output.AddedEdges {
		fmt.Printf("  + %s -> %s\n", edge.Actor, edge.Action)
	}
	for _, edge := range output.RemovedEdges {
		fmt.Printf("  - %s -> %s\n", edge.Actor, edge.Action)
	}
	return exitCode
}

func printDriftUsage() {
	fmt.Println("Usage:")
	fmt.Println("  warden drift detect --baseline <graph.json> --ruleset <rules.json> --invariant-hash <H> [--current-invariant-hash <H2>] [--acknowledge-expansion] [--json] [--explain]")
}
