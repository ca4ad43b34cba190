package main

import (
	"encoding/json"
	"fmt"
	"strings"

	coreerrors "github.com/davidahmann/warden/core/errors"
)

// writeJSONOutput prints output as a single JSON line, completing the error
// envelope (error_code, error_category, hint, retryable, correlation_id)
// when the output carries a non-empty error.
func writeJSONOutput(output any, exitCode int) int {
	encoded, err := marshalOutputWithErrorEnvelope(output, exitCode)
	if err != nil {
		fmt.Println(`{"ok":false,"error":"failed to encode output","error_code":"encode_failed","error_category":"internal_failure","retryable":false}`)
		return exitInternalFailure
	}
	fmt.Println(string(encoded))
	return exitCode
}

func marshalOutputWithErrorEnvelope(output any, exitCode int) ([]byte, error) {
	encoded, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	result := map[string]any{}
	if err := json.Unmarshal(encoded, &result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(asString(result["correlation_id"])) == "" {
		if correlationID := currentCorrelationID(); correlationID != "" {
			result["correlation_id"] = correlationID
		}
	}
	errorText := strings.TrimSpace(asString(result["error"]))
	if errorText == "" {
		return json.Marshal(result)
	}
	if strings.TrimSpace(asString(result["error_code"])) == "" {
		result["error_code"] = defaultErrorCode(exitCode)
	}
	if strings.TrimSpace(asString(result["error_category"])) == "" {
		result["error_category"] = string(defaultErrorCategory(exitCode))
	}
	if _, exists := result["retryable"]; !exists {
		result["retryable"] = false
	}
	if strings.TrimSpace(asString(result["hint"])) == "" {
		result["hint"] = defaultHint(exitCode)
	}
	return json.Marshal(result)
}

// exitCodeForError maps a classified error to its exit code; unclassified
// errors fall through to fallbackExit.
func exitCodeForError(err error, fallbackExit int) int {
	if err == nil {
		return exitOK
	}
	switch coreerrors.CategoryOf(err) {
	case coreerrors.CategoryInvalidInput:
		return exitInvalidInput
	case coreerrors.CategoryVerification:
		return exitVerifyFailed
	case coreerrors.CategoryPolicyBlocked:
		return exitPolicyBlocked
	case coreerrors.CategoryDependencyMissing:
		return exitMissingDependency
	case coreerrors.CategoryIOFailure, coreerrors.CategoryInternalFailure:
		return exitInternalFailure
	}
	return fallbackExit
}

func defaultErrorCategory(exitCode int) coreerrors.Category {
	switch exitCode {
	case exitInvalidInput:
		return coreerrors.CategoryInvalidInput
	case exitVerifyFailed, exitDriftFailed:
		return coreerrors.CategoryVerification
	case exitPolicyBlocked:
		return coreerrors.CategoryPolicyBlocked
	case exitMissingDependency:
		return coreerrors.CategoryDependencyMissing
	default:
		return coreerrors.CategoryInternalFailure
	}
}

func defaultErrorCode(exitCode int) string {
	switch exitCode {
	case exitInvalidInput:
		return "invalid_input"
	case exitVerifyFailed:
		return "verification_failed"
	case exitDriftFailed:
		return "drift_detected"
	case exitPolicyBlocked:
		return "policy_blocked"
	case exitMissingDependency:
		return "dependency_missing"
	default:
		return "internal_failure"
	}
}

func defaultHint(exitCode int) string {
	switch exitCode {
	case exitInvalidInput:
		return "check command usage and input schema"
	case exitVerifyFailed:
		return "re-run verify after checking artifact integrity"
	case exitDriftFailed:
		return "inspect added_edges and revise or acknowledge the contract"
	case exitPolicyBlocked:
		return "inspect reasons and adjust the request or authority evidence"
	case exitMissingDependency:
		return "install or configure the missing dependency and retry"
	default:
		return "retry after checking local environment and logs"
	}
}

func asString(value any) string {
	text, _ := value.(string)
	return text
}
