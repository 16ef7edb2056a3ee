// Package semverutil turns release verdicts into version numbers.
package semverutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/emenda-labs/semdiff/core/changespec"
)

var (
	// ErrInvalidVersion is returned for strings that are not "vMAJOR.MINOR.PATCH".
	ErrInvalidVersion = errors.New("invalid semantic version")

	// ErrInsufficientBump is returned when a declared version does not cover
	// the required release type.
	ErrInsufficientBump = errors.New("version bump too small")
)

type version struct {
	major, minor, patch int
	prerelease          bool
}

func parse(v string) (version, error) {
	if !semver.IsValid(v) {
		return version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	canon := semver.Canonical(v)
	pre := semver.Prerelease(canon)
	parts := strings.Split(strings.TrimPrefix(strings.TrimSuffix(canon, pre), "v"), ".")

	var out version
	for i, dst := range []*int{&out.major, &out.minor, &out.patch} {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, v)
		}
		*dst = n
	}
	out.prerelease = pre != ""
	return out, nil
}

func (v version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.major, v.minor, v.patch)
}

// Next returns the smallest version after current that a release of type rt
// requires. Below v1, breaking changes bump the minor version and everything
// else bumps the patch version. A prerelease is completed by its own release
// version. ReleaseNone returns current in canonical form.
func Next(current string, rt changespec.ReleaseType) (string, error) {
	v, err := parse(current)
	if err != nil {
		return "", err
	}
	if !rt.Valid() {
		return "", fmt.Errorf("unknown release type %q", rt)
	}
	if rt == changespec.ReleaseNone {
		return semver.Canonical(current), nil
	}
	if v.prerelease {
		return v.String(), nil
	}

	if v.major == 0 {
		switch rt {
		case changespec.ReleaseMajor:
			rt = changespec.ReleaseMinor
		case changespec.ReleaseMinor:
			rt = changespec.ReleasePatch
		}
	}

	switch rt {
	case changespec.ReleaseMajor:
		v = version{major: v.major + 1}
	case changespec.ReleaseMinor:
		v = version{major: v.major, minor: v.minor + 1}
	default:
		v.patch++
	}
	return v.String(), nil
}

// VerifyBump checks that moving from one version to another is a large
// enough step for a release of type rt.
func VerifyBump(from, to string, rt changespec.ReleaseType) error {
	if _, err := parse(to); err != nil {
		return err
	}
	required, err := Next(from, rt)
	if err != nil {
		return err
	}
	if semver.Compare(to, required) < 0 {
		return fmt.Errorf("%w: %s -> %s is not a %s release, need at least %s", ErrInsufficientBump, from, to, rt, required)
	}
	return nil
}
