package phpreflect

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a PHP runtime version.
type Version struct {
	Major, Minor, Patch int
}

// DefaultVersion is used when no version is configured.
var DefaultVersion = Version{Major: 8, Minor: 3}

// ParseVersion accepts "8", "8.1", "8.1.27", an optional "v" or "PHP "
// prefix, and the PHP_VERSION_ID form "80127".
func ParseVersion(s string) (Version, error) {
	orig := s
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "PHP "), "php ")
	s = strings.TrimPrefix(s, "v")
	// Suffixes such as "8.3.0-dev" or "8.2.1RC1" are dropped.
	if i := strings.IndexFunc(s, func(r rune) bool { return r != '.' && (r < '0' || r > '9') }); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return Version{}, fmt.Errorf("phpreflect: invalid version %q", orig)
	}

	if !strings.Contains(s, ".") && len(s) == 5 {
		id, err := strconv.Atoi(s)
		if err != nil {
			return Version{}, fmt.Errorf("phpreflect: invalid version %q: %w", orig, err)
		}
		return Version{Major: id / 10000, Minor: id / 100 % 100, Patch: id % 100}, nil
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Version{}, fmt.Errorf("phpreflect: invalid version %q", orig)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("phpreflect: invalid version %q: %w", orig, err)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MustParseVersion is ParseVersion for constants. It panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or +1.
func (v Version) Compare(o Version) int {
	for _, d := range [...]int{v.Major - o.Major, v.Minor - o.Minor, v.Patch - o.Patch} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	return 0
}

// AtLeast reports whether v >= o.
func (v Version) AtLeast(o Version) bool { return v.Compare(o) >= 0 }

// Feature names a language capability that appeared in a specific PHP
// release.
type Feature string

const (
	FeatureAttributes       Feature = "attributes"
	FeaturePromotedParams   Feature = "constructor property promotion"
	FeatureEnums            Feature = "enumerations"
	FeatureReadonlyProps    Feature = "readonly properties"
	FeatureFinalConstants   Feature = "final class constants"
	FeatureReadonlyClasses  Feature = "readonly classes"
	FeatureDynamicPropsFlag Feature = "AllowDynamicProperties"
	FeatureTypedConstants   Feature = "typed class constants"
)

var featureMinimum = map[Feature]Version{
	FeatureAttributes:       {Major: 8},
	FeaturePromotedParams:   {Major: 8},
	FeatureEnums:            {Major: 8, Minor: 1},
	FeatureReadonlyProps:    {Major: 8, Minor: 1},
	FeatureFinalConstants:   {Major: 8, Minor: 1},
	FeatureReadonlyClasses:  {Major: 8, Minor: 2},
	FeatureDynamicPropsFlag: {Major: 8, Minor: 2},
	FeatureTypedConstants:   {Major: 8, Minor: 3},
}

// MinVersion returns the first PHP release supporting f.
func (f Feature) MinVersion() Version { return featureMinimum[f] }

// Supports reports whether f is available on v.
func (v Version) Supports(f Feature) bool { return v.AtLeast(featureMinimum[f]) }

// require returns an *UnsupportedError when f is unavailable on v.
func (v Version) require(f Feature) error {
	if v.Supports(f) {
		return nil
	}
	return &UnsupportedError{Feature: f, Min: featureMinimum[f], Current: v}
}
