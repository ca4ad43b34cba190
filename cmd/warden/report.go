package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/davidahmann/warden/core/report"
)

type reportSummarizeOutput struct {
	OK           bool   `json:"ok"`
	Events       int    `json:"events"`
	WindowStart  string `json:"window_start,omitempty"`
	WindowEnd    string `json:"window_end,omitempty"`
	HashOfInputs string `json:"hash_of_inputs,omitempty"`
	SummaryPath  string `json:"summary_path,omitempty"`
	Error        string `json:"error,omitempty"`
}

func runReport(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Summarize diagnostic event logs into deterministic, canonically hashed aggregates.")
	}
	if len(arguments) == 0 {
		printReportUsage()
		return exitInvalidInput
	}
	switch arguments[0] {
	case "summarize":
		return runReportSummarize(arguments[1:])
	default:
		printReportUsage()
		return exitInvalidInput
	}
}

func runReportSummarize(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Validate a diag event JSONL file and emit counts by type, severity, and source over the observed time window.")
	}
	flagSet := flag.NewFlagSet("report-summarize", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var eventsPath string
	var outPath string
	var jsonOutput bool
	var helpFlag bool

	flagSet.StringVar(&eventsPath, "events", "", "path to diag events jsonl")
	flagSet.StringVar(&outPath, "out", "", "path for the canonical summary json")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeReportSummarizeOutput(jsonOutput, reportSummarizeOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	if helpFlag {
		printReportUsage()
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeReportSummarizeOutput(jsonOutput, reportSummarizeOutput{OK: false, Error: "unexpected positional arguments"}, exitInvalidInput)
	}
	if eventsPath == "" {
		return writeReportSummarizeOutput(jsonOutput, reportSummarizeOutput{OK: false, Error: "--events is required"}, exitInvalidInput)
	}

	// #nosec G304 -- events path is explicit local user input.
	content, err := os.ReadFile(eventsPath)
	if err != nil {
		return writeReportSummarizeOutput(jsonOutput, reportSummarizeOutput{OK: false, Error: fmt.Sprintf("read events: %v", err)}, exitInternalFailure)
	}
	events, err := report.ParseEvents(content)
	if err != nil {
		return writeReportSummarizeOutput(jsonOutput, reportSummarizeOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	digest, err := report.InputDigest(content)
	if err != nil {
		return writeReportSummarizeOutput(jsonOutput, reportSummarizeOutput{OK: false, Error: err.Error()}, exitInternalFailure)
	}

	summary := report.Summarize(events, digest)
	output := reportSummarizeOutput{
		OK:           true,
		Events:       len(events),
		WindowStart:  summary.WindowStart,
		WindowEnd:    summary.WindowEnd,
		HashOfInputs: summary.HashOfInputs,
	}
	if outPath != "" {
		if err := report.WriteSummaryArtifact(summary, outPath); err != nil {
			output.OK = false
			output.Error = err.Error()
			return writeReportSummarizeOutput(jsonOutput, output, exitCodeForError(err, exitInternalFailure))
		}
		output.SummaryPath = outPath
	}
	return writeReportSummarizeOutput(jsonOutput, output, exitOK)
}

func writeReportSummarizeOutput(jsonOutput bool, output reportSummarizeOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if output.Error != "" {
		fmt.Printf("report summarize error: %s\n", output.Error)
		return exitCode
	}
	fmt.Printf("report summarize ok: events=%d window=[%s, %s] hash=%s\n",
		output.Events, output.WindowStart, output.WindowEnd, output.HashOfInputs)
	if output.SummaryPath != "" {
		fmt.Printf("summary: %s\n", output.SummaryPath)
	}
	return exitCode
}

func printReportUsage() {
	fmt.Println("Usage:")
	fmt.Println("  warden report summarize --events <events.jsonl> [--out <summary.json>] [--json] [--explain]")
}
