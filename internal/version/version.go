// Package version parses and compares the semantic versions used by rule
// file formats.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed major.minor.patch version.
type Version struct {
	Major int
	Minor int
	Patch int
}

func New(major, minor, patch int) *Version {
	return &Version{
		Major: major,
		Minor: minor,
		Patch: patch,
	}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) Equal(other Version) bool {
	return v.Major == other.Major && v.Minor == other.Minor && v.Patch == other.Patch
}

func (v Version) GreaterThan(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}

	if v.Minor != other.Minor {
		return v.Minor > other.Minor
	}

	return v.Patch > other.Patch
}

func (v Version) LessThan(other Version) bool {
	return !v.Equal(other) && !v.GreaterThan(other)
}

// IsOneOf reports whether the version equals any of the given versions.
func (v Version) IsOneOf(versions []*Version) bool {
	for _, other := range versions {
		if other != nil && v.Equal(*other) {
			return true
		}
	}

	return false
}

// Parse parses a major.minor.patch version string.
func Parse(version string) (*Version, error) {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid version %s", version)
	}

	major, err := parsePart(parts[0], "major")
	if err != nil {
		return nil, err
	}

	minor, err := parsePart(parts[1], "minor")
	if err != nil {
		return nil, err
	}

	patch, err := parsePart(parts[2], "patch")
	if err != nil {
		return nil, err
	}

	return New(major, minor, patch), nil
}

// MustParse is Parse panicking on invalid input, for package-level version
// constants.
func MustParse(version string) *Version {
	v, err := Parse(version)
	if err != nil {
		panic(err)
	}

	return v
}

func parsePart(part, name string) (int, error) {
	value, err := strconv.Atoi(part)
	if err != nil {
		return 0, fmt.Errorf("invalid %s version %s: %w", name, part, err)
	}

	if value < 0 {
		return 0, fmt.Errorf("invalid %s version %s: cannot be negative", name, part)
	}

	return value, nil
}
