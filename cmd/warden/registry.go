package main

import (
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/davidahmann/warden/core/transition"
)

type registryValidateOutput struct {
	OK          bool     `json:"ok"`
	Path        string   `json:"path,omitempty"`
	Transitions int      `json:"transitions,omitempty"`
	IDs         []string `json:"ids,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func runRegistry(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Validate transition registry files: required fields, closed enum membership, and unique transition ids.")
	}
	if len(arguments) == 0 {
		printRegistryUsage()
		return exitInvalidInput
	}
	switch arguments[0] {
	case "validate":
		return runRegistryValidate(arguments[1:])
	default:
		printRegistryUsage()
		return exitInvalidInput
	}
}

func runRegistryValidate(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Load a registry YAML file and report every declared transition or the first loader violation.")
	}
	arguments = reorderInterspersedFlags(arguments, nil)

	flagSet := flag.NewFlagSet("registry-validate", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var jsonOutput bool
	var helpFlag bool
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeRegistryValidateOutput(jsonOutput, registryValidateOutput{OK: false, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}
	if helpFlag {
		printRegistryUsage()
		return exitOK
	}
	if len(flagSet.Args()) != 1 {
		return writeRegistryValidateOutput(jsonOutput, registryValidateOutput{OK: false, Error: "exactly one registry path is required"}, exitInvalidInput)
	}
	registryPath := flagSet.Args()[0]

	registry, err := transition.LoadRegistryFile(registryPath)
	if err != nil {
		return writeRegistryValidateOutput(jsonOutput, registryValidateOutput{OK: false, Path: registryPath, Error: err.Error()}, exitCodeForError(err, exitInvalidInput))
	}

	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return writeRegistryValidateOutput(jsonOutput, registryValidateOutput{
		OK:          true,
		Path:        registryPath,
		Transitions: len(registry),
		IDs:         ids,
	}, exitOK)
}

func writeRegistryValidateOutput(jsonOutput bool, output registryValidateOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if output.Error != "" {
		fmt.Printf("registry validate error: %s\n", output.Error)
		return exitCode
	}
	fmt.Printf("registry validate ok: %s transitions=%d\n", output.Path, output.Transitions)
	return exitCode
}

func printRegistryUsage() {
	fmt.Println("Usage:")
	fmt.Println("  warden registry validate <registry.yaml> [--json] [--explain]")
}
