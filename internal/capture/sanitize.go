package capture

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// timestampLayout is second-precision by contract: stored artifact names are
// "<timestamp> - <slug>". Two uploads of the same name within one clock
// second therefore collide on purpose; the store's exclusive create surfaces
// that as ErrExists instead of hiding it behind wider timestamps.
const timestampLayout = "2006-01-02 15:04:05"

// Sanitize turns an arbitrary client-supplied upload name into a
// collision-resistant, storage-safe identifier. Deterministic for a given
// name and clock second.
func Sanitize(name string) string {
	return sanitizeAt(name, time.Now())
}

func sanitizeAt(name string, now time.Time) string {
	return now.Format(timestampLayout) + " - " + Slug(name)
}

// Slug normalizes text to a lowercase ASCII token of letters, digits and
// single hyphens. Accented letters are folded to their base letter via NFKD;
// anything else (path separators, combining marks, non-Latin script) becomes
// a separator, so a hostile name can never smuggle directory structure or
// odd bytes into the store.
func Slug(text string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range norm.NFKD.String(text) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining mark split off a folded letter; drop it without
			// breaking the token.
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r + ('a' - 'A'))
		default:
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
