package sandbox

import (
	"github.com/google/uuid"
)

// generateID returns a short unique identifier used for sandbox
// directory names so concurrent provisions never collide.
func generateID() string {
	return uuid.NewString()[:12]
}
