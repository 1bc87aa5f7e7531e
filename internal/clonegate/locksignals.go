package clonegate

import "strings"

// lockTokens are well-known substrings that indicate a storage or index
// lock was encountered in a subcommand's combined output.
var lockTokens = []string{
	"storage locked",
	"index lock held",
	"waiting for lock",
	"lock file exists",
	"LOCK_TIMEOUT",
	"could not acquire lock",
}

// scanLockSignals returns the subset of lockTokens present in combined,
// in lockTokens order, deduplicated.
func scanLockSignals(combined string) []string {
	var found []string
	lower := strings.ToLower(combined)
	for _, token := range lockTokens {
		if strings.Contains(lower, strings.ToLower(token)) {
			found = append(found, token)
		}
	}
	return found
}
