package retention

import (
	"fmt"

	"github.com/nateschmiedehaus/indexer-patrol/internal/types"
)

// ValidateOverrides rejects any override that would unprotect a class
// the defaults mark protected. Overrides may otherwise tighten limits
// freely.
func ValidateOverrides(overrides map[Class]Limits) error {
	defaults := DefaultLimits()
	for class, override := range overrides {
		def, ok := defaults[class]
		if ok && def.Protected && !override.Protected {
			return fmt.Errorf("%w: class %s is protected and cannot be unprotected by override", types.ErrConfigInvalid, class)
		}
	}
	return nil
}

// ApplyOverrides merges overrides onto the defaults, per-class.
func ApplyOverrides(overrides map[Class]Limits) map[Class]Limits {
	merged := DefaultLimits()
	for class, override := range overrides {
		merged[class] = override
	}
	return merged
}
