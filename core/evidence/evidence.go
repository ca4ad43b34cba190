// Package evidence implements the totally ordered evidence levels and the
// authority gate that compares them. The gate is a pure value object: same
// inputs always produce the same decision, with no side effects, so a single
// gate may be shared across any number of concurrent checks.
package evidence

import (
	"fmt"

	wardenerrors "github.com/davidahmann/warden/core/errors"
)

// Level is an actor's proven authority tier. The ordering is the sole
// semantic: NONE < USER < OWNER < ADMIN.
type Level int

const (
	LevelNone  Level = 0
	LevelUser  Level = 1
	LevelOwner Level = 2
	LevelAdmin Level = 3
)

var levelNames = map[Level]string{
	LevelNone:  "NONE",
	LevelUser:  "USER",
	LevelOwner: "OWNER",
	LevelAdmin: "ADMIN",
}

var levelsByName = map[string]Level{
	"NONE":  LevelNone,
	"USER":  LevelUser,
	"OWNER": LevelOwner,
	"ADMIN": LevelAdmin,
}

// String returns the canonical upper-case name of the level.
func (l Level) String() string {
	name, ok := levelNames[l]
	if !ok {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return name
}

// Valid reports whether l is a member of the closed level set.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// ParseLevel resolves a level name. Unknown names are usage errors, never
// denials.
func ParseLevel(name string) (Level, error) {
	level, ok := levelsByName[name]
	if !ok {
		return 0, wardenerrors.Wrap(
			fmt.Errorf("unknown evidence level %q (expected NONE, USER, OWNER, or ADMIN)", name),
			wardenerrors.CategoryInvalidInput,
			"unknown_evidence_level",
			"use one of the declared evidence level names",
			false,
		)
	}
	return level, nil
}

// LevelNames returns the closed set of level names in ascending order.
func LevelNames() []string {
	return []string{"NONE", "USER", "OWNER", "ADMIN"}
}

// Decision is a gate outcome.
type Decision int

const (
	Deny  Decision = 0
	Allow Decision = 1
)

func (d Decision) String() string {
	if d == Allow {
		return "ALLOW"
	}
	return "DENY"
}

// Gate holds the minimum evidence level a check demands. Construct once,
// reuse freely.
type Gate struct {
	required Level
}

// NewGate builds a gate for the given required level. A non-member level is
// a usage error.
func NewGate(required Level) (Gate, error) {
	if !required.Valid() {
		return Gate{}, wardenerrors.Wrap(
			fmt.Errorf("required level %d is not a member of the evidence level set", int(required)),
			wardenerrors.CategoryInvalidInput,
			"invalid_required_level",
			"construct gates only from declared evidence levels",
			false,
		)
	}
	return Gate{required: required}, nil
}

// Required returns the minimum evidence level this gate demands.
func (g Gate) Required() Level {
	return g.required
}

// Check returns Allow iff provided >= required. The total order makes the
// result monotonic: once a level passes, every higher level passes.
func (g Gate) Check(provided Level) (Decision, error) {
	if !provided.Valid() {
		return Deny, wardenerrors.Wrap(
			fmt.Errorf("provided level %d is not a member of the evidence level set", int(provided)),
			wardenerrors.CategoryInvalidInput,
			"invalid_provided_level",
			"check gates only with declared evidence levels",
			false,
		)
	}
	if provided >= g.required {
		return Allow, nil
	}
	return Deny, nil
}
