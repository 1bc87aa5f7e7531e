// Package retention classifies ephemeral patrol artifacts into named
// classes with per-class age/count limits and decides what to delete.
package retention

import "time"

// Class names one of the artifact categories the retention engine
// manages independently.
type Class string

const (
	ClassReleaseEvidence   Class = "release-evidence"
	ClassPatrolReports     Class = "patrol-reports"
	ClassTempSandboxes     Class = "temp-sandboxes"
	ClassTransientPackages Class = "transient-installable-packages"
	ClassExternalClones    Class = "externally-rooted-clones"
)

// Limits bounds one class's retained artifacts.
type Limits struct {
	MaxAge       time.Duration
	MaxCount     int
	MinDeleteAge time.Duration
	Protected    bool
}

// Candidate is one artifact under retention's consideration.
type Candidate struct {
	Path    string
	ModTime time.Time
	Class   Class
}

// DefaultLimits returns the built-in per-class limits. Release evidence
// is always protected; nothing in this map may be overridden to
// unprotect it.
func DefaultLimits() map[Class]Limits {
	return map[Class]Limits{
		ClassReleaseEvidence: {
			Protected: true,
		},
		ClassPatrolReports: {
			MaxAge:       30 * 24 * time.Hour,
			MaxCount:     200,
			MinDeleteAge: 24 * time.Hour,
		},
		ClassTempSandboxes: {
			MaxAge:       48 * time.Hour,
			MaxCount:     50,
			MinDeleteAge: time.Hour,
		},
		ClassTransientPackages: {
			MaxAge:       7 * 24 * time.Hour,
			MaxCount:     20,
			MinDeleteAge: time.Hour,
		},
		ClassExternalClones: {
			MaxAge:       7 * 24 * time.Hour,
			MaxCount:     100,
			MinDeleteAge: 24 * time.Hour,
		},
	}
}
