package stopmachine

import "testing"

func TestZeroValueStartsGreen(t *testing.T) {
	var machine Machine
	if machine.State() != Green {
		t.Fatalf("initial state = %s", machine.State())
	}
}

func TestAdvanceWalksForward(t *testing.T) {
	var machine Machine
	if err := machine.Advance(); err != nil {
		t.Fatalf("advance to amber: %v", err)
	}
	if machine.State() != Amber {
		t.Fatalf("state = %s, want AMBER", machine.State())
	}
	if err := machine.Advance(); err != nil {
		t.Fatalf("advance to red: %v", err)
	}
	if machine.State() != Red {
		t.Fatalf("state = %s, want RED", machine.State())
	}
	if err := machine.Advance(); err == nil {
		t.Fatal("advancing from RED must fail")
	}
	if machine.State() != Red {
		t.Fatalf("failed advance must not change state, got %s", machine.State())
	}
}

func TestTransitionToForwardOnly(t *testing.T) {
	var machine Machine
	if err := machine.TransitionTo(Red); err != nil {
		t.Fatalf("jump to red: %v", err)
	}
	if machine.State() != Red {
		t.Fatalf("state = %s", machine.State())
	}

	var second Machine
	if err := second.TransitionTo(Amber); err != nil {
		t.Fatalf("jump to amber: %v", err)
	}
	if err := second.TransitionTo(Amber); err == nil {
		t.Fatal("same-state transition must fail")
	}
	if err := second.TransitionTo(Green); err == nil {
		t.Fatal("backward transition must fail")
	}
	if err := second.TransitionTo(State(7)); err == nil {
		t.Fatal("unknown target must fail")
	}
	if second.State() != Amber {
		t.Fatalf("failed transitions must not change state, got %s", second.State())
	}
}

func TestResetForbiddenFromRed(t *testing.T) {
	var machine Machine
	if err := machine.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := machine.Reset(); err != nil {
		t.Fatalf("reset from amber: %v", err)
	}
	if machine.State() != Green {
		t.Fatalf("state after reset = %s", machine.State())
	}

	if err := machine.TransitionTo(Red); err != nil {
		t.Fatalf("jump to red: %v", err)
	}
	if err := machine.Reset(); err == nil {
		t.Fatal("reset from RED must fail")
	}
	if machine.State() != Red {
		t.Fatalf("RED is terminal, got %s", machine.State())
	}
}

func TestStateString(t *testing.T) {
	if Green.String() != "GREEN" || Amber.String() != "AMBER" || Red.String() != "RED" {
		t.Fatal("state names mismatch")
	}
	if State(9).String() != "STATE(9)" {
		t.Fatalf("unknown state string = %s", State(9).String())
	}
}
