package itsection

import (
	"fmt"

	"github.com/blang/semver"
)

// Minimum SDK and interface-types versions a loaded module must
// declare, matching min-it-version's constants exactly.
var (
	MinSDKVersion = semver.MustParse("0.6.0")
	MinITVersion  = semver.MustParse("0.20.0")
)

// ExtractSDKVersion parses the sdk-version custom section's UTF-8
// semver string.
func ExtractSDKVersion(sections []CustomSection) (semver.Version, error) {
	s, err := ExtractOne(sections, SDKVersionSectionName, ErrNoSDKVersionSection, ErrMultipleITSections)
	if err != nil {
		return semver.Version{}, err
	}
	v, err := semver.Parse(string(s.Content))
	if err != nil {
		return semver.Version{}, fmt.Errorf("parsing sdk version: %w", err)
	}
	return v, nil
}

// ITVersionSectionName carries the interface-types format's own
// semver string, separate from the SDK version that produced it.
const ITVersionSectionName = "it-version"

// ExtractITVersion parses the it-version custom section. A module
// built before this section existed carries no it-version entry at
// all; callers treat ErrNoITVersionSection as "assume MinITVersion"
// rather than a hard failure, since the wire format itself hasn't
// changed shape since 0.20.0.
func ExtractITVersion(sections []CustomSection) (semver.Version, error) {
	s, err := ExtractOne(sections, ITVersionSectionName, ErrNoITVersionSection, ErrMultipleITSections)
	if err != nil {
		return semver.Version{}, err
	}
	v, err := semver.Parse(string(s.Content))
	if err != nil {
		return semver.Version{}, fmt.Errorf("parsing it version: %w", err)
	}
	return v, nil
}

// CheckSDKVersion returns a *VersionTooLowError if actual is older than min.
func CheckSDKVersion(actual, min semver.Version) error {
	if actual.LT(min) {
		return &VersionTooLowError{Kind: "sdk", Actual: actual, Min: min}
	}
	return nil
}

// CheckITVersion returns a *VersionTooLowError if actual is older than min.
func CheckITVersion(actual, min semver.Version) error {
	if actual.LT(min) {
		return &VersionTooLowError{Kind: "interface-types", Actual: actual, Min: min}
	}
	return nil
}

// VersionTooLowError is returned by CheckSDKVersion/CheckITVersion.
type VersionTooLowError struct {
	Kind         string
	Actual, Min semver.Version
}

func (e *VersionTooLowError) Error() string {
	return fmt.Sprintf("%s version %s is below the minimum required %s", e.Kind, e.Actual, e.Min)
}
