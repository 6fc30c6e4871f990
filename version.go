package toxiproxy

import (
	"fmt"
	"strconv"
	"strings"
)

// ServerVersion is the dotted-numeric version a server reports on
// GET /version.
type ServerVersion struct {
	Major int
	Minor int
	Patch int
}

// MinimumServerVersion is the oldest server this client will talk to.
// Connecting to anything older fails fast instead of producing undefined
// wire behavior.
var MinimumServerVersion = ServerVersion{Major: 2}

// patchUpdateVersion is the server version that switched resource updates
// from POST to PATCH. Servers at or above it get PATCH, older ones get the
// legacy POST; sending the wrong verb is a hard failure on both sides of
// the threshold, so the comparison lives in exactly one place (updateVerb).
var patchUpdateVersion = ServerVersion{Major: 2, Minor: 6}

// ParseServerVersion parses a dotted-numeric version string such as
// "2.5.0". A leading "v" and any pre-release or build suffix ("2.6.0-dev")
// are tolerated.
func ParseServerVersion(raw string) (ServerVersion, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "v")
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) == 0 || len(parts) > 3 || parts[0] == "" {
		return ServerVersion{}, fmt.Errorf("malformed server version %q", raw)
	}

	var v ServerVersion
	for i, dst := range []*int{&v.Major, &v.Minor, &v.Patch} {
		if i >= len(parts) {
			break
		}
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return ServerVersion{}, fmt.Errorf("malformed server version %q", raw)
		}
		*dst = n
	}
	return v, nil
}

func (v ServerVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 if v is older than, equal to or newer than
// other.
func (v ServerVersion) Compare(other ServerVersion) int {
	pairs := [][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
	}
	for _, p := range pairs {
		if p[0] < p[1] {
			return -1
		}
		if p[0] > p[1] {
			return 1
		}
	}
	return 0
}

// AtLeast reports whether v is other or newer.
func (v ServerVersion) AtLeast(other ServerVersion) bool {
	return v.Compare(other) >= 0
}
