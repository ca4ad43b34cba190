package main

// Exit code contract: scripts key off these values, keep them stable.
const (
	exitOK                = 0
	exitDriftFailed       = 2
	exitPolicyBlocked     = 3
	exitInvalidInput      = 4
	exitVerifyFailed      = 5
	exitMissingDependency = 6
	exitInternalFailure   = 7
)
