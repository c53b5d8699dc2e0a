package utils

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// RCRule says whether a target version must, may or must not be a release candidate.
type RCRule string

const (
	RCOptional  RCRule = "optional"
	RCRequired  RCRule = "required"
	RCForbidden RCRule = "forbidden"
)

var rcPrerelease = regexp.MustCompile(`^rc\d+(-rc\d+)*$`)

func parseTag(tag string) (*semver.Version, bool) {
	if !strings.HasPrefix(tag, "v") {
		return nil, false
	}
	v, err := semver.StrictNewVersion(strings.TrimPrefix(tag, "v"))
	if err != nil || v.Metadata() != "" {
		return nil, false
	}
	if pre := v.Prerelease(); pre != "" && !rcPrerelease.MatchString(pre) {
		return nil, false
	}
	return v, true
}

// IsValidVersion reports whether tag looks like vX.Y.Z with an optional -rcN suffix.
func IsValidVersion(tag string) bool {
	_, ok := parseTag(tag)
	return ok
}

// IsValidTargetVersion checks tag against the release-candidate rule of a
// network. Target versions keep a single-digit minor version.
func IsValidTargetVersion(tag string, rule RCRule) bool {
	v, ok := parseTag(tag)
	if !ok || v.Minor() > 9 {
		return false
	}
	isRC := v.Prerelease() != ""
	switch rule {
	case RCRequired:
		return isRC && !strings.Contains(v.Prerelease(), "-")
	case RCForbidden:
		return !isRC
	default:
		return true
	}
}
