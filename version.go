package svgmaker

import (
	"github.com/Masterminds/semver/v3"
)

// Version is the current SDK version, following semantic versioning.
const Version = "0.2.0"

// APIVersion is the SVGMaker API version this SDK targets.
const APIVersion = "1.1.0"

// userAgent identifies the SDK on every request.
const userAgent = "svgmaker-go/" + Version

// APIVersionCompatible reports whether a service-reported version is within
// the major version this SDK targets. Unparseable versions are treated as
// incompatible.
func APIVersionCompatible(serverVersion string) bool {
	server, err := semver.NewVersion(serverVersion)
	if err != nil {
		return false
	}
	target := semver.MustParse(APIVersion)
	return server.Major() == target.Major() && !server.LessThan(target)
}
