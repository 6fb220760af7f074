package autodeck

import "fmt"

// Version information for autodeck.
const (
	VersionMajor = 0
	VersionMinor = 3
	VersionPatch = 0
)

// Version is the full version string.
var Version = fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)

// userAgent identifies outbound provider requests.
var userAgent = "autodeck/" + Version
