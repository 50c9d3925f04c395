package version

// Version information for GameStringer
const (
	// Version is the current semantic version of the engine
	Version = "1.0.0"

	// BuildDate is set during build time (use -ldflags)
	BuildDate = "development"

	// GitCommit is set during build time (use -ldflags)
	GitCommit = "unknown"
)

// Info returns version information as a string
func Info() string {
	return Version
}

// FullInfo returns detailed version information
func FullInfo() string {
	return "GameStringer " + Version + " (commit: " + GitCommit + ", built: " + BuildDate + ")"
}
