// Package version provides build version information for the application.
// This is a separate package to avoid import cycles between cli and api packages.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the build version string, set by ldflags during build.
// Format: vX.Y.Z or vX.Y.Z-dev for development builds.
var Version = "v1.3.0"

// BuildTime is the build timestamp, set by ldflags during build.
var BuildTime = "unknown"

// UserAgent returns the User-Agent header value sent on every API request.
func UserAgent() string {
	return fmt.Sprintf("FerriteCLI/%s", strings.TrimPrefix(Version, "v"))
}

// NewerAvailable reports whether latest is a strictly newer release than
// current. Both accept an optional "v" prefix and an optional pre-release
// suffix ("v1.2.3-dev" compares as 1.2.3). Unparseable versions compare as
// not-newer so a malformed server response never nags the user.
func NewerAvailable(current, latest string) bool {
	cur, okC := parseSemver(current)
	lat, okL := parseSemver(latest)
	if !okC || !okL {
		return false
	}
	for i := 0; i < 3; i++ {
		if lat[i] != cur[i] {
			return lat[i] > cur[i]
		}
	}
	return false
}

func parseSemver(s string) ([3]int, bool) {
	var out [3]int
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return out, false
		}
		out[i] = n
	}
	return out, true
}
