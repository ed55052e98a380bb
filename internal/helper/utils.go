package helper

import (
	"strings"

	"github.com/google/uuid"
)

// ShortID returns an 8-character random identifier, handy for naming
// per-document collections.
func ShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
