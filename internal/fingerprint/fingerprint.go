// Package fingerprint derives a semi-stable client identifier from ambient
// browser signals. It is not cryptographically secure: collisions and
// spoofing are accepted risks for a low-stakes freemium gate.
package fingerprint

import (
	"strconv"
	"strings"

	"github.com/foliowise/advisor/internal/models"
)

// Generate hashes the client signals into a short base-36 identifier.
// Deterministic for a fixed environment.
func Generate(signals models.ClientSignals) string {
	combined := strings.Join([]string{
		signals.UserAgent,
		signals.Language,
		signals.Platform,
		signals.ScreenResolution,
		signals.Timezone,
	}, "|")
	return hashBase36(combined)
}

// hashBase36 applies a 32-bit rolling hash (h = h*31 + c, wrapped to signed
// 32-bit) and renders the absolute value in base 36.
func hashBase36(s string) string {
	var h int32
	for _, c := range s {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}
