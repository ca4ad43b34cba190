package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/davidahmann/warden/core/report"
)

// version is stamped at release time via ldflags; default stays dev for local builds.
var version = "0.0.0-dev"

func main() {
	os.Exit(run(os.Args))
}

func run(arguments []string) int {
	startedAt := time.Now()
	correlationID := newCorrelationID(arguments)
	setCurrentCorrelationID(correlationID)
	exitCode := runDispatch(arguments)
	writeCommandDiagEvent(normalizeCommand(arguments), exitCode, time.Since(startedAt))
	setCurrentCorrelationID("")
	return exitCode
}

func runDispatch(arguments []string) int {
	if len(arguments) < 2 {
		fmt.Println("warden", version)
		return exitOK
	}
	if arguments[1] == "--explain" {
		return writeExplain("Warden is an offline-first CLI for deterministic authority decisions: transition gating, commit rule resolution, reachability drift detection, and canonical audit artifacts.")
	}

	switch arguments[1] {
	case "transition":
		return runTransition(arguments[2:])
	case "commit":
		return runCommit(arguments[2:])
	case "graph":
		return runGraph(arguments[2:])
	case "drift":
		return runDrift(arguments[2:])
	case "registry":
		return runRegistry(arguments[2:])
	case "report":
		return runReport(arguments[2:])
	case "keys":
		return runKeys(arguments[2:])
	case "verify":
		return runVerify(arguments[2:])
	case "version", "--version", "-v":
		if hasExplainFlag(arguments[2:]) {
			return writeExplain("Print the CLI version.")
		}
		fmt.Println("warden", version)
		return exitOK
	default:
		printUsage()
		return exitInvalidInput
	}
}

func normalizeCommand(arguments []string) string {
	if len(arguments) < 2 {
		return "version"
	}
	command := strings.TrimSpace(arguments[1])
	switch command {
	case "":
		return "unknown"
	case "--version", "-v", "version":
		return "version"
	case "--explain":
		return "explain"
	}
	if len(arguments) > 2 {
		subcommand := strings.TrimSpace(arguments[2])
		if subcommand != "" && !strings.HasPrefix(subcommand, "-") {
			return command + " " + subcommand
		}
	}
	return command
}

// writeCommandDiagEvent appends a command_end diagnostic event when
// WARDEN_DIAG_LOG points at a JSONL path. Opt-in, never fatal.
func writeCommandDiagEvent(command string, exitCode int, elapsed time.Duration) {
	diagPath := strings.TrimSpace(os.Getenv("WARDEN_DIAG_LOG"))
	if diagPath == "" {
		return
	}
	event := report.NewCommandEvent(command, exitCode, elapsed, time.Now())
	if err := report.AppendEvent(diagPath, event); err != nil {
		fmt.Fprintf(os.Stderr, "warden warning: diag event write failed: %v\n", err)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  warden transition eval --registry <reg.yaml> --request <req.json> --context <ctx.json> [flags]")
	fmt.Println("  warden commit eval --ruleset <rules.json> --request <req.json> [flags]")
	fmt.Println("  warden graph build --ruleset <rules.json> [flags]")
	fmt.Println("  warden drift detect --baseline <graph.json> --ruleset <rules.json> --invariant-hash <H> [flags]")
	fmt.Println("  warden registry validate <registry.yaml> [--json]")
	fmt.Println("  warden report summarize --events <events.jsonl> [flags]")
	fmt.Println("  warden keys init [--out-dir DIR] [--prefix warden] [--force] [--json]")
	fmt.Println("  warden verify --artifact <path> [--public-key <path>|--public-key-env <VAR>] [--json]")
	fmt.Println("  warden version")
	fmt.Println("Run any command with --explain for a one-line description.")
}
