package service

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// maxSanitizedLen keeps stored names under common filesystem limits once the
// uniqueness prefix is added.
const maxSanitizedLen = 200

// SanitizeFilename replaces every character outside [A-Za-z0-9.] with '_'.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// UniqueFilename builds the stored name "<unix-millis>-<random>-<sanitized>".
// Overlong names keep their tail so the extension survives.
func UniqueFilename(original string, now time.Time) string {
	clean := SanitizeFilename(original)
	if len(clean) > maxSanitizedLen {
		clean = clean[len(clean)-maxSanitizedLen:]
	}
	return fmt.Sprintf("%d-%d-%s", now.UnixMilli(), rand.Int63n(int64(1e9)), clean)
}
