package types

import "errors"

// Sentinel error kinds per spec §7. Components wrap these with context via
// fmt.Errorf("...: %w", ...) rather than inventing ad hoc string errors.
var (
	ErrProvisioningFailure   = errors.New("provisioning failure")
	ErrStorageSetupFailure   = errors.New("storage setup failure")
	ErrRepoUnavailable       = errors.New("repo unavailable")
	ErrSpawnFailure          = errors.New("spawn failure")
	ErrObservationMissing    = errors.New("observation missing")
	ErrHealthAssertionFailed = errors.New("health assertion failure")
	ErrPolicyBlocked         = errors.New("policy blocked")
	ErrConfigInvalid         = errors.New("config invalid")
	ErrLedgerCorrupt         = errors.New("ledger corrupt")
)
