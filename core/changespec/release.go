package changespec

import (
	"fmt"
	"strings"
)

// ReleaseType is a semantic-versioning verdict. The empty value means unset.
type ReleaseType string

const (
	ReleaseNone  ReleaseType = "none"
	ReleasePatch ReleaseType = "patch"
	ReleaseMinor ReleaseType = "minor"
	ReleaseMajor ReleaseType = "major"
)

// Severity orders release types: none < patch < minor < major. Unknown values
// (including unset) return -1.
func (r ReleaseType) Severity() int {
	switch r {
	case ReleaseNone:
		return 0
	case ReleasePatch:
		return 1
	case ReleaseMinor:
		return 2
	case ReleaseMajor:
		return 3
	}
	return -1
}

// Valid reports whether r is one of the four release types.
func (r ReleaseType) Valid() bool {
	return r.Severity() >= 0
}

// MaxRelease returns the most severe of the given release types, or
// ReleaseNone when called with none.
func MaxRelease(types ...ReleaseType) ReleaseType {
	out := ReleaseNone
	for _, t := range types {
		if t.Severity() > out.Severity() {
			out = t
		}
	}
	return out
}

// ParseReleaseType parses a case-insensitive release type name.
func ParseReleaseType(s string) (ReleaseType, error) {
	r := ReleaseType(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown release type %q (want major, minor, patch or none)", s)
	}
	return r, nil
}
