package cli

import (
	"github.com/ferrite-sec/ferrite-cli/internal/api"
)

// Exit codes, one per error kind. Scripting callers branch on these, so
// the mapping is a stable contract: codes are never reused or renumbered.
const (
	ExitOK              = 0
	ExitInternal        = 1
	ExitBadRequest      = 2
	ExitUnauthenticated = 3
	ExitSessionExpired  = 4
	ExitNotFound        = 5
	ExitConflict        = 6
	ExitRateLimited     = 7
	ExitServerError     = 8
	ExitNetwork         = 9
	ExitUploadFailed    = 10
	ExitLocalStorage    = 11
)

// ExitCode maps a command error onto the exit code contract. Errors that
// did not come from the API client (flag parsing, unexpected faults) map
// to ExitInternal.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch api.KindOf(err) {
	case api.KindBadRequest:
		return ExitBadRequest
	case api.KindUnauthenticated:
		return ExitUnauthenticated
	case api.KindSessionExpired:
		return ExitSessionExpired
	case api.KindNotFound:
		return ExitNotFound
	case api.KindConflict:
		return ExitConflict
	case api.KindRateLimited:
		return ExitRateLimited
	case api.KindServerError:
		return ExitServerError
	case api.KindNetwork:
		return ExitNetwork
	case api.KindUploadFailed:
		return ExitUploadFailed
	case api.KindLocalStorage:
		return ExitLocalStorage
	default:
		return ExitInternal
	}
}
