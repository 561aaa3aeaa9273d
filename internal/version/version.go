package version

import "github.com/fatih/color"

// Version information for the plbind CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI. It also salts generation
	// cache keys, so it must stay free of terminal styling.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionColor = color.New(color.FgYellow, color.Bold)
	commitColor  = color.New(color.FgGreen)
	dateColor    = color.New(color.FgBlue)
)

// Styled renders the version line for terminals.
func Styled() string {
	out := "plbind " + versionColor.Sprint(Version)
	if GitCommit != "" {
		out += " (" + commitColor.Sprint(GitCommit) + ")"
	}
	if BuildDate != "" {
		out += " built " + dateColor.Sprint(BuildDate)
	}
	return out
}
