package version

// Version is the current version of the argo-intraday toolkit.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-intraday/internal/version.Version=1.2.3"
// The value "main" indicates a development build.
var Version = "v0.3.0"

// SessionSchemaVersion is the layout version of persisted live session files.
const SessionSchemaVersion = "1.1.0"

// GetVersion returns the current version of the toolkit.
func GetVersion() string {
	return Version
}
