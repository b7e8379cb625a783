package cli

import "github.com/k-in/Legacy-Modernization-Agents-sub001/internal/helper"

// Exit codes.
const (
	ExitOK        = 0
	ExitRemoteErr = 1
	ExitUsageErr  = 2
	ExitInternal  = 3
)

func exitCodeFor(err error) int {
	switch helper.Classify(err) {
	case helper.KindNone:
		return ExitOK
	case helper.KindRemote, helper.KindMalformed:
		return ExitRemoteErr
	case helper.KindUsage:
		return ExitUsageErr
	default:
		return ExitInternal
	}
}
